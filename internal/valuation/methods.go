package valuation

import (
	"math"

	"stock-analyzer/internal/sector"
	"stock-analyzer/internal/stats"
	"stock-analyzer/internal/types"
)

const (
	reitFFOMultiple    = 15.0
	reitTargetYield    = 0.045
	defaultPayoutRatio = 0.4
	defaultEPSGrowth   = 0.05
)

// DCF projects the average of the four most recent cash flows at the
// configured growth rate and discounts at the CAPM cost of equity.
func (e *Engine) DCF(fin types.Financials, info types.Info) (res *Result, err error) {
	m := string(MethodDCF)
	defer types.Recover(m, &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(m, "No shares outstanding data")
	}
	wacc := e.costOfEquity(info)

	cfs := cashFlowSeries(fin.CashFlow)
	if len(cfs) == 0 || allZero(cfs) {
		return nil, types.Insufficient(m, "No cash flow data available")
	}

	tg := e.cfg.TerminalGrowth
	if wacc <= tg {
		return nil, types.Invalid(m, "WACC must be greater than terminal growth rate")
	}

	avg := stats.Mean(cfs)
	g := e.cfg.GrowthRate
	years := e.cfg.ProjectionYears

	pvSum := 0.0
	for year := 1; year <= years; year++ {
		cf := avg * math.Pow(1+g, float64(year))
		pvSum += cf / math.Pow(1+wacc, float64(year))
	}
	terminalCF := avg * math.Pow(1+g, float64(years)) * (1 + tg)
	terminalValue := terminalCF / (wacc - tg)
	pvTerminal := terminalValue / math.Pow(1+wacc, float64(years))

	ev := pvSum + pvTerminal
	equity := ev + info.TotalCash - info.TotalDebt
	fv := equity / shares
	if fv <= 0 || math.IsNaN(fv) {
		return nil, types.Insufficient(m, "Cash flows do not support a positive equity value")
	}

	res = newResult(MethodDCF, fv, info.Price())
	res.Scenarios = &Scenarios{Bear: fv * 0.8, Base: fv, Bull: fv * 1.2}
	res.WACC = wacc * 100
	res.EnterpriseValue = ev
	return res, nil
}

// Multiples averages whichever of the P/E, P/B and PEG estimates apply.
func (e *Engine) Multiples(info types.Info) (res *Result, err error) {
	m := string(MethodMultiples)
	defer types.Recover(m, &err)

	price := info.Price()
	var estimates []MultipleEstimate

	if info.TrailingPE > 0 && info.ForwardPE > 0 {
		industryPE := types.Or(info.IndustryPE, e.cfg.IndustryPE)
		eps := price / info.TrailingPE
		estimates = append(estimates, MultipleEstimate{
			Name:         "P/E",
			FairValue:    eps * math.Min(industryPE, e.cfg.MaxPE),
			CurrentRatio: info.TrailingPE,
			TargetRatio:  industryPE,
		})
	}

	if info.PriceToBook > 0 {
		book := price / info.PriceToBook
		estimates = append(estimates, MultipleEstimate{
			Name:         "P/B",
			FairValue:    book * e.cfg.TargetPB,
			CurrentRatio: info.PriceToBook,
			TargetRatio:  e.cfg.TargetPB,
		})
	}

	if info.PEGRatio > 0 && info.PEGRatio < e.cfg.MaxPEG {
		estimates = append(estimates, MultipleEstimate{
			Name:         "PEG",
			FairValue:    price / info.PEGRatio,
			CurrentRatio: info.PEGRatio,
			TargetRatio:  1.0,
		})
	}

	if len(estimates) == 0 {
		return nil, types.Insufficient(m, "Insufficient data for multiples valuation")
	}

	sum := 0.0
	for _, est := range estimates {
		sum += est.FairValue
	}
	res = newResult(MethodMultiples, sum/float64(len(estimates)), price)
	res.Multiples = estimates
	return res, nil
}

// DDM is the Gordon growth model on the implied annual dividend.
func (e *Engine) DDM(info types.Info) (res *Result, err error) {
	m := string(MethodDDM)
	defer types.Recover(m, &err)

	if info.DividendYield == 0 {
		return nil, types.Insufficient(m, "No dividend data available")
	}
	price := info.Price()
	dividend := price * info.DividendYield

	payout := types.Or(info.PayoutRatio, defaultPayoutRatio)
	growth := types.Or(info.EarningsGrowth, defaultEPSGrowth) * (1 - payout)
	required := e.costOfEquity(info)
	if required <= growth {
		return nil, types.Invalid(m, "Growth rate exceeds required return")
	}

	fv := dividend * (1 + growth) / (required - growth)
	res = newResult(MethodDDM, fv, price)
	res.Dividend = &DividendDetail{
		YieldPct:          info.DividendYield * 100,
		GrowthPct:         growth * 100,
		RequiredReturnPct: required * 100,
	}
	return res, nil
}

// NAV is book value per share, with a tangible variant excluding intangibles.
func (e *Engine) NAV(info types.Info) (res *Result, err error) {
	m := string(MethodNAV)
	defer types.Recover(m, &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(m, "No shares outstanding data")
	}
	book := info.TotalAssets - info.TotalLiabilities
	nav := book / shares
	price := info.Price()

	res = newResult(MethodNAV, nav, price)
	res.NAV = &NAVDetail{TangibleNAV: (book - info.IntangibleAssets) / shares}
	if nav > 0 {
		res.NAV.PriceToBook = price / nav
	}
	return res, nil
}

// REIT values funds from operations (net income plus depreciation) at a fixed
// multiple, blended evenly with a target-yield value when a dividend exists.
func (e *Engine) REIT(info types.Info, fin types.Financials) (res *Result, err error) {
	m := string(MethodREIT)
	defer types.Recover(m, &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(m, "No shares outstanding data")
	}
	price := info.Price()

	ffo := fin.IncomeStatement.Latest("Net Income") + fin.IncomeStatement.Latest("Depreciation And Amortization")
	ffoPerShare := ffo / shares
	fv := ffoPerShare * reitFFOMultiple

	if info.DividendYield > 0 {
		yieldValue := price * info.DividendYield / reitTargetYield
		fv = (fv + yieldValue) / 2
	}

	res = newResult(MethodREIT, fv, price)
	res.REIT = &REITDetail{
		FFOPerShare:      ffoPerShare,
		DividendYieldPct: info.DividendYield * 100,
	}
	if ffoPerShare > 0 {
		res.REIT.FFOMultiple = price / ffoPerShare
	}
	return res, nil
}

// RevenueMultiple applies a sector target P/S to revenue per share with a
// premium for fast growers.
func (e *Engine) RevenueMultiple(info types.Info) (res *Result, err error) {
	m := string(MethodRevenueMultiple)
	defer types.Recover(m, &err)

	ps := info.PriceToSalesTTM
	if ps == 0 {
		return nil, types.Insufficient(m, "No revenue data available")
	}
	price := info.Price()
	revenuePerShare := 0.0
	if ps > 0 {
		revenuePerShare = price / ps
	}

	sec := info.Sector
	if sec == "" {
		sec = "Technology"
	}
	target := e.sectors.Lookup(sector.PriceToSales, sec)
	fv := revenuePerShare * target

	growth := types.Or(info.RevenueGrowth, 0)
	switch {
	case growth > 0.30:
		fv *= 1.3
	case growth > 0.15:
		fv *= 1.1
	}

	res = newResult(MethodRevenueMultiple, fv, price)
	res.Revenue = &RevenueDetail{
		PriceToSales:     ps,
		TargetMultiple:   target,
		RevenueGrowthPct: growth * 100,
	}
	return res, nil
}

// NormalizedEarnings prices the median of up to five years of EPS at a
// mid-cycle sector P/E.
func (e *Engine) NormalizedEarnings(info types.Info, fin types.Financials) (res *Result, err error) {
	m := string(MethodNormalizedEarnings)
	defer types.Recover(m, &err)

	eps := fin.IncomeStatement.Head("Basic EPS", 5)
	if len(eps) == 0 {
		if info.TrailingEPS == 0 {
			return nil, types.Insufficient(m, "No earnings data available")
		}
		eps = []float64{info.TrailingEPS}
	}
	normalized := stats.Median(eps)

	sec := info.Sector
	if sec == "" {
		sec = "Industrials"
	}
	pe := e.sectors.Lookup(sector.MidCyclePE, sec)

	res = newResult(MethodNormalizedEarnings, normalized*pe, info.Price())
	res.Earnings = &EarningsDetail{
		NormalizedEPS: normalized,
		CurrentEPS:    info.TrailingEPS,
		NormalizedPE:  pe,
		CurrentPE:     info.TrailingPE,
	}
	return res, nil
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}
