package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"stock-analyzer/internal/analysislog"
	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/dcf/dcfobs"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/marketdata/marketdataobs"
	"stock-analyzer/internal/marketdata/zerodha"
	"stock-analyzer/internal/risk"
	"stock-analyzer/internal/risk/riskobs"
	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/scoring/scoringobs"
	"stock-analyzer/internal/sector"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/technical/technicalobs"
	"stock-analyzer/internal/valuation"
	"stock-analyzer/internal/valuation/valuationobs"
)

// initializeSystem loads .env, then the logger, which also sets up tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old analysis logs if retention is configured.
func compressOldLogs(ctx context.Context, dir string) {
	v := os.Getenv("ANALYSIS_LOG_RETENTION_DAYS")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(ctx, "Ignoring invalid ANALYSIS_LOG_RETENTION_DAYS", "value", v)
		return
	}
	if err := analysislog.CompressOlder(dir, n); err != nil {
		logger.Warn(ctx, "Failed to compress old analysis logs", "error", err)
	}
}

// initializeSource picks the price history source. A KITE source without
// credentials falls back to synthetic bars.
func initializeSource(ctx context.Context, cfg *store.Config) marketdata.HistorySource {
	md := cfg.MarketData
	if md.Source == store.SourceKite {
		src, err := zerodha.NewSource(zerodha.Params{
			APIKey:      os.Getenv(md.APIKeyEnv),
			AccessToken: os.Getenv(md.AccessTokenEnv),
			Exchange:    md.Exchange,
		})
		if err == nil {
			logger.Info(ctx, "Using LIVE daily candles from Zerodha", "exchange", md.Exchange)
			return marketdataobs.Wrap(src)
		}
		logger.Warn(ctx, "Kite source unavailable, using synthetic history", "error", err)
	} else {
		logger.Info(ctx, "Using SYNTHETIC price history")
	}
	return marketdataobs.Wrap(marketdata.NewSynthetic(cfg.EnhancedDCF.Seed))
}

func sectorTable(cfg *store.Config) (*sector.Table, error) {
	overrides := make(map[sector.Kind]map[string]float64, len(cfg.SectorBenchmarks))
	for kind, entries := range cfg.SectorBenchmarks {
		overrides[sector.Kind(kind)] = entries
	}
	return sector.Default().WithOverrides(overrides)
}

func initializeValuer(cfg *store.Config) (interfaces.Valuer, error) {
	table, err := sectorTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("sector benchmarks: %w", err)
	}
	v := cfg.Valuation
	eng := valuation.NewEngine(valuation.Config{
		RiskFreeRate:      v.RiskFreeRate,
		MarketRiskPremium: v.MarketRiskPremium,
		TerminalGrowth:    v.TerminalGrowth,
		GrowthRate:        v.DCFGrowthRate,
		ProjectionYears:   v.ProjectionYears,
		IndustryPE:        v.IndustryPE,
		MaxPE:             v.MaxPE,
		TargetPB:          v.PBTarget,
		MaxPEG:            v.PEGMax,
	}, valuation.WithSectorTable(table))
	return valuationobs.Wrap(eng), nil
}

func initializeTechnical(cfg *store.Config) interfaces.TechnicalAnalyzer {
	t := cfg.Technical
	return technicalobs.Wrap(technical.NewAnalyzer(technical.Config{
		RSIPeriod:         t.RSIPeriod,
		RSIOversold:       t.RSIOversold,
		RSIOverbought:     t.RSIOverbought,
		BBWindow:          t.BBWindow,
		BBStdDev:          t.BBStdDev,
		ADXPeriod:         t.ADXPeriod,
		ADXTrendThreshold: t.ADXTrendThreshold,
		NearLevelPct:      t.NearLevelPct,
		VolumeSurgeRatio:  t.VolumeSurgeRatio,
	}))
}

func initializeScorer(cfg *store.Config) (interfaces.BuyScorer, error) {
	w := cfg.Scoring.Weights
	s, err := scoring.New(scoring.Weights{
		Valuation:    w.Valuation,
		Technical:    w.Technical,
		Sentiment:    w.Sentiment,
		Momentum:     w.Momentum,
		Fundamentals: w.Fundamentals,
	})
	if err != nil {
		return nil, err
	}
	return scoringobs.Wrap(s), nil
}

func initializeRisk(cfg *store.Config) interfaces.RiskAnalyzer {
	rc := risk.DefaultConfig()
	rc.RiskFreeRate = cfg.Risk.RiskFreeRate
	return riskobs.Wrap(risk.NewAnalyzer(rc))
}

func initializeDCF() interfaces.DCFCalculator {
	return dcfobs.Wrap(dcf.NewCalculator())
}

// newPipeline wires every analyzer from cfg.
func newPipeline(ctx context.Context, cfg *store.Config) (*pipeline, error) {
	valuer, err := initializeValuer(cfg)
	if err != nil {
		return nil, err
	}
	scorer, err := initializeScorer(cfg)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		cfg:       cfg,
		source:    initializeSource(ctx, cfg),
		valuer:    valuer,
		technical: initializeTechnical(cfg),
		risk:      initializeRisk(cfg),
		scorer:    scorer,
		dcf:       initializeDCF(),
	}, nil
}
