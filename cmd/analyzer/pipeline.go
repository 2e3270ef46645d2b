package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/options"
	"stock-analyzer/internal/report"
	"stock-analyzer/internal/risk"
	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/sentiment"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

// Stage names used in report errors.
const (
	stageHistory     = "history"
	stageValuation   = "valuation"
	stageTechnical   = "technical"
	stageRisk        = "risk"
	stageMonteCarlo  = "monte_carlo"
	stageSensitivity = "sensitivity"
	stageScoring     = "scoring"
)

// Sweep bounds for the sensitivity tables.
const (
	sweepPoints = 21
	gridPoints  = 9
)

var sweeps = []struct {
	param  dcf.Param
	lo, hi float64
}{
	{dcf.ParamGrowthRate, 0, 0.50},
	{dcf.ParamWACC, 0.05, 0.20},
	{dcf.ParamTerminalGrowth, 0, 0.05},
}

type pipeline struct {
	cfg       *store.Config
	source    marketdata.HistorySource
	valuer    interfaces.Valuer
	technical interfaces.TechnicalAnalyzer
	risk      interfaces.RiskAnalyzer
	scorer    interfaces.BuyScorer
	dcf       interfaces.DCFCalculator
	now       func() time.Time
}

// loadSnapshot reads a company snapshot. An empty path yields a bare
// snapshot for symbol whose history comes from the configured source.
func loadSnapshot(path, symbol string) (*types.CompanySnapshot, error) {
	snap := &types.CompanySnapshot{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, snap); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
	}
	if symbol != "" {
		snap.Ticker = symbol
	}
	snap.Ticker = strings.ToUpper(snap.Ticker)
	if snap.Ticker == "" {
		return nil, errors.New("snapshot has no ticker; pass -symbol")
	}
	if snap.Info.Symbol == "" {
		snap.Info.Symbol = snap.Ticker
	}
	return snap, nil
}

// run executes every stage it can. Failed stages are recorded on the report
// and leave their section empty; scoring always runs.
func (p *pipeline) run(ctx context.Context, snap *types.CompanySnapshot) *report.Report {
	op := logger.StartOperation(ctx, "analyze", "ticker", snap.Ticker)
	ctx = op.GetContext()

	now := time.Now
	if p.now != nil {
		now = p.now
	}
	rep := &report.Report{Ticker: snap.Ticker, Timestamp: now()}

	bars := snap.PriceHistory
	if len(bars) == 0 {
		var err error
		bars, err = p.source.History(ctx, snap.Ticker, p.cfg.MarketData.LookbackDays)
		rep.Fail(stageHistory, err)
	}
	info := snap.Info
	if info.Price() <= 0 && len(bars) > 0 {
		info.CurrentPrice = bars[len(bars)-1].Close
	}

	var (
		val                   *valuation.Result
		tech                  *technical.Result
		metrics               *risk.Metrics
		valErr, techErr, rErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		val, valErr = p.valuer.CalculateValuation(ctx, snap.Financials, info)
		return nil
	})
	g.Go(func() error {
		tech, techErr = p.technical.Analyze(ctx, bars)
		return nil
	})
	g.Go(func() error {
		metrics, rErr = p.risk.Calculate(ctx, bars, info)
		return nil
	})
	_ = g.Wait()

	rep.Valuation, rep.Technical, rep.Risk = val, tech, metrics
	rep.Fail(stageValuation, valErr)
	rep.Fail(stageTechnical, techErr)
	rep.Fail(stageRisk, rErr)
	rep.Methods = report.Compare(p.valuer.Compare(ctx, snap.Financials, info))

	if mc, ok := p.monteCarloParams(snap, info, val); ok {
		res, err := p.dcf.MonteCarlo(ctx, mc)
		rep.MonteCarlo = res
		rep.Fail(stageMonteCarlo, err)
		p.sensitivity(ctx, rep, mc)
	} else {
		rep.Fail(stageMonteCarlo, types.Insufficient("Monte Carlo DCF", "No positive free cash flow"))
	}

	rep.Options = options.FindUnusualActivity(ctx, snap.Options)

	mood := snap.Sentiment
	if mood == nil && len(snap.Mentions) > 0 {
		agg := sentiment.Aggregate(snap.Mentions)
		mood = &agg
	}

	opp, err := p.scorer.AnalyzeBuyOpportunity(ctx, scoring.Input{
		Ticker:    snap.Ticker,
		Valuation: val,
		Technical: tech,
		Sentiment: mood,
		Info:      info,
		History:   bars,
	})
	rep.Opportunity = opp
	rep.Fail(stageScoring, err)

	if err != nil {
		op.EndWithError(err)
	} else {
		op.End("recommendation", opp.Recommendation, "score", opp.TotalScore, "skipped", len(rep.Errors))
	}
	return rep
}

// monteCarloParams centres the simulation on the latest free cash flow and
// the valuation's discount rate, falling back to CAPM.
func (p *pipeline) monteCarloParams(snap *types.CompanySnapshot, info types.Info, val *valuation.Result) (dcf.MonteCarloParams, bool) {
	base := snap.Financials.CashFlow.Latest("Free Cash Flow")
	if base <= 0 || info.SharesOutstanding <= 0 {
		return dcf.MonteCarloParams{}, false
	}

	v, e := p.cfg.Valuation, p.cfg.EnhancedDCF
	wacc := v.RiskFreeRate + types.Or(info.Beta, 1.0)*v.MarketRiskPremium
	if val != nil && val.WACC > 0 {
		wacc = val.WACC / 100
	}
	return dcf.MonteCarloParams{
		BaseCashFlow:      base,
		GrowthRate:        dcf.Distribution{Mean: v.DCFGrowthRate, StdDev: e.GrowthStdDev},
		WACC:              dcf.Distribution{Mean: wacc, StdDev: e.WACCStdDev},
		TerminalGrowth:    dcf.Distribution{Mean: v.TerminalGrowth, StdDev: e.TerminalStdDev},
		ProjectionYears:   v.ProjectionYears,
		Cash:              info.TotalCash,
		Debt:              info.TotalDebt,
		SharesOutstanding: info.SharesOutstanding,
		Simulations:       e.Simulations,
		Seed:              e.Seed,
		Workers:           e.Workers,
	}, true
}

// sensitivity sweeps each rate around the Monte Carlo means and builds the
// growth by WACC grid.
func (p *pipeline) sensitivity(ctx context.Context, rep *report.Report, mc dcf.MonteCarloParams) {
	base := dcf.Params{
		BaseCashFlow:      mc.BaseCashFlow,
		GrowthRate:        mc.GrowthRate.Mean,
		WACC:              mc.WACC.Mean,
		TerminalGrowth:    mc.TerminalGrowth.Mean,
		ProjectionYears:   mc.ProjectionYears,
		Cash:              mc.Cash,
		Debt:              mc.Debt,
		SharesOutstanding: mc.SharesOutstanding,
	}
	for _, sw := range sweeps {
		values := floats.Span(make([]float64, sweepPoints), sw.lo, sw.hi)
		res, err := p.dcf.Sensitivity(ctx, base, sw.param, values)
		if err != nil {
			rep.Fail(stageSensitivity, err)
			return
		}
		rep.Sensitivity = append(rep.Sensitivity, res)
	}
	rep.SensitivityTable = p.dcf.TwoWay(ctx, base,
		floats.Span(make([]float64, gridPoints), 0.05, 0.25),
		floats.Span(make([]float64, gridPoints), 0.06, 0.16),
	)
}
