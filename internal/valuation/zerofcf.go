package valuation

import (
	"math"
	"strings"

	"stock-analyzer/internal/sector"
	"stock-analyzer/internal/types"
)

// Sub-method keys of the Zero-FCF suite, in evaluation order.
const (
	zeroRevenue       = "revenue"
	zeroEBITDA        = "ebitda"
	zeroRuleOf40      = "rule_of_40"
	zeroUnitEconomics = "unit_economics"
	zeroTerminalValue = "terminal_value"
)

const (
	qualityHigh   = "high"
	qualityMedium = "medium"
	qualityLow    = "low"
)

const (
	saasBaseRevenueMultiple = 8.0
	typicalContractValue    = 50000.0
	salesMarketingRatio     = 0.4
	growthDecay             = 0.85
	terminalGrowthFloor     = 0.025
	terminalRiskFree        = 0.045
	terminalMarketPremium   = 0.065
	terminalFallbackWACC    = 0.10
	terminalYears           = 5
	nearTermRevenueWeight   = 0.3
)

var zeroFCFWeights = map[string]map[string]float64{
	"SaaS": {
		zeroRuleOf40:      0.35,
		zeroUnitEconomics: 0.30,
		zeroRevenue:       0.20,
		zeroEBITDA:        0.10,
		zeroTerminalValue: 0.05,
	},
	"Software": {
		zeroRevenue:       0.30,
		zeroEBITDA:        0.25,
		zeroRuleOf40:      0.25,
		zeroTerminalValue: 0.15,
		zeroUnitEconomics: 0.05,
	},
	"E-commerce": {
		zeroRevenue:       0.40,
		zeroEBITDA:        0.30,
		zeroTerminalValue: 0.20,
		zeroUnitEconomics: 0.10,
		zeroRuleOf40:      0.0,
	},
	"Default": {
		zeroEBITDA:        0.35,
		zeroRevenue:       0.30,
		zeroTerminalValue: 0.25,
		zeroRuleOf40:      0.05,
		zeroUnitEconomics: 0.05,
	},
}

var zeroFCFPriority = map[string][]string{
	"SaaS":       {zeroRuleOf40, zeroUnitEconomics, zeroRevenue, zeroEBITDA},
	"Software":   {zeroRevenue, zeroRuleOf40, zeroEBITDA, zeroTerminalValue},
	"E-commerce": {zeroRevenue, zeroEBITDA, zeroTerminalValue},
	"Default":    {zeroEBITDA, zeroRevenue, zeroTerminalValue},
}

// ZeroFCFEngine values companies with zero or negative free cash flow from
// revenue, EBITDA, growth efficiency and unit economics, weighted by company
// type.
type ZeroFCFEngine struct {
	sectors *sector.Table
}

func NewZeroFCFEngine(t *sector.Table) *ZeroFCFEngine {
	if t == nil {
		t = sector.Default()
	}
	return &ZeroFCFEngine{sectors: t}
}

// zeroInputs are the figures shared by every sub-method.
type zeroInputs struct {
	info        types.Info
	fin         types.Financials
	companyType string
	revenue     float64
	growth      float64
	netCash     float64
	shares      float64
}

func (in zeroInputs) perShare(ev float64) float64 {
	return (ev + in.netCash) / in.shares
}

// Value runs every applicable sub-method and returns their weighted fair value.
func (z *ZeroFCFEngine) Value(info types.Info, fin types.Financials) (res *Result, err error) {
	m := string(MethodZeroFCF)
	defer types.Recover(m, &err)

	in := zeroInputs{
		info:        info,
		fin:         fin,
		companyType: detectCompanyType(info),
		revenue:     info.TotalRevenue,
		growth:      types.Or(info.RevenueGrowth, 0),
		netCash:     info.TotalCash - info.TotalDebt,
		shares:      info.SharesOutstanding,
	}
	if in.revenue == 0 {
		in.revenue = fin.IncomeStatement.Latest("Total Revenue")
	}

	var methods []ZeroFCFMethod
	if in.shares > 0 {
		add := func(mv ZeroFCFMethod, ok bool) {
			if ok {
				methods = append(methods, mv)
			}
		}
		add(z.revenueMultiple(in))
		add(z.ebitdaMultiple(in))
		switch in.companyType {
		case "SaaS", "Software", "Technology":
			add(ruleOf40(in))
		}
		switch in.companyType {
		case "SaaS", "Software":
			add(unitEconomics(in))
		}
		add(z.terminalValue(in))
	}

	if len(methods) == 0 {
		return nil, &types.Error{
			Kind:   types.InsufficientData,
			Method: m,
			Msg:    "Insufficient data for Zero-FCF valuation",
			Hint:   "Company requires positive cash flow for traditional DCF",
		}
	}

	fv := weightedFairValue(methods, in.companyType)
	res = newResult(MethodZeroFCF, fv, info.Price())
	res.Scenarios = &Scenarios{
		Bear:       fv * 0.7,
		Base:       fv,
		Bull:       fv * 1.3,
		Optimistic: fv * 1.5,
	}
	res.ZeroFCF = &ZeroFCFDetail{
		CompanyType:   in.companyType,
		PrimaryMethod: primaryMethod(methods, in.companyType),
		Confidence:    confidence(methods),
		Methods:       methods,
	}
	return res, nil
}

func (z *ZeroFCFEngine) revenueMultiple(in zeroInputs) (ZeroFCFMethod, bool) {
	if in.revenue == 0 {
		return ZeroFCFMethod{}, false
	}
	industry := in.info.Industry
	var base float64
	switch {
	case strings.Contains(industry, "Software") || strings.Contains(industry, "SaaS"):
		base = z.sectors.Lookup(sector.RevenueMultiple, "SaaS")
	case strings.Contains(industry, "E-commerce") || strings.Contains(industry, "Internet"):
		base = z.sectors.Lookup(sector.RevenueMultiple, "E-commerce")
	default:
		base = z.sectors.Lookup(sector.RevenueMultiple, in.info.Sector)
	}

	adj := 1.0
	switch g := in.growth; {
	case g > 0.5:
		adj = 1.5
	case g > 0.3:
		adj = 1.3
	case g > 0.15:
		adj = 1.1
	case g < 0:
		adj = 0.7
	}
	multiple := base * adj
	ev := in.revenue * multiple

	quality := qualityMedium
	if in.growth != 0 {
		quality = qualityHigh
	}
	return ZeroFCFMethod{
		Key:             zeroRevenue,
		Label:           "Revenue Multiple",
		FairValue:       in.perShare(ev),
		EnterpriseValue: ev,
		DataQuality:     quality,
		Metrics: map[string]float64{
			"revenue":            in.revenue,
			"revenue_multiple":   multiple,
			"base_multiple":      base,
			"growth_adjustment":  adj,
			"revenue_growth_pct": in.growth * 100,
		},
	}, true
}

func (z *ZeroFCFEngine) ebitdaMultiple(in zeroInputs) (ZeroFCFMethod, bool) {
	ebitda := in.info.EBITDA
	if ebitda == 0 {
		ebit := in.fin.IncomeStatement.Latest("EBIT")
		if ebit == 0 {
			ebit = in.fin.IncomeStatement.Latest("Operating Income")
		}
		ebitda = ebit * 1.15
	}
	if ebitda <= 0 {
		return ZeroFCFMethod{}, false
	}

	var base float64
	if industry := in.info.Industry; strings.Contains(industry, "Software") || strings.Contains(industry, "SaaS") {
		base = z.sectors.Lookup(sector.EBITDAMultiple, "SaaS")
	} else {
		base = z.sectors.Lookup(sector.EBITDAMultiple, in.info.Sector)
	}

	growthAdj := 1.0
	switch g := in.growth; {
	case g > 0.3:
		growthAdj = 1.3
	case g > 0.15:
		growthAdj = 1.15
	case g < 0:
		growthAdj = 0.8
	}
	marginAdj := 1.0
	switch mg := in.info.EBITDAMargins; {
	case mg > 0.3:
		marginAdj = 1.2
	case mg > 0.2:
		marginAdj = 1.1
	case mg < 0.1:
		marginAdj = 0.9
	}

	multiple := base * growthAdj * marginAdj
	ev := ebitda * multiple
	return ZeroFCFMethod{
		Key:             zeroEBITDA,
		Label:           "EBITDA Multiple",
		FairValue:       in.perShare(ev),
		EnterpriseValue: ev,
		DataQuality:     qualityHigh,
		Metrics: map[string]float64{
			"ebitda":            ebitda,
			"ebitda_multiple":   multiple,
			"base_multiple":     base,
			"ebitda_margin_pct": in.info.EBITDAMargins * 100,
		},
	}, true
}

func ruleOf40(in zeroInputs) (ZeroFCFMethod, bool) {
	if in.revenue == 0 {
		return ZeroFCFMethod{}, false
	}
	growthPct := in.growth * 100
	fcf := in.fin.CashFlow.Latest("Free Cash Flow")
	fcfMargin := 0.0
	if in.revenue > 0 {
		fcfMargin = fcf / in.revenue * 100
	}
	score := growthPct + fcfMargin

	var multiple float64
	switch {
	case score >= 60:
		multiple = saasBaseRevenueMultiple * 1.5
	case score >= 40:
		multiple = saasBaseRevenueMultiple * 1.2
	case score >= 20:
		multiple = saasBaseRevenueMultiple
	default:
		multiple = saasBaseRevenueMultiple * 0.7
	}
	ev := in.revenue * multiple

	rating := "poor"
	switch {
	case score >= 40:
		rating = "excellent"
	case score >= 20:
		rating = "good"
	case score >= 0:
		rating = "fair"
	}
	quality := qualityMedium
	if fcf != 0 {
		quality = qualityHigh
	}
	return ZeroFCFMethod{
		Key:             zeroRuleOf40,
		Label:           "Rule of 40",
		FairValue:       in.perShare(ev),
		EnterpriseValue: ev,
		DataQuality:     quality,
		Metrics: map[string]float64{
			"rule_of_40_score":   score,
			"revenue_growth_pct": growthPct,
			"fcf_margin_pct":     fcfMargin,
			"revenue_multiple":   multiple,
		},
		Note: "Quality rating: " + rating,
	}, true
}

// unitEconomics estimates LTV:CAC and CAC payback from revenue and growth
// using typical mid-market SaaS assumptions.
func unitEconomics(in zeroInputs) (ZeroFCFMethod, bool) {
	if in.revenue == 0 {
		return ZeroFCFMethod{}, false
	}
	grossMargin := types.Or(in.info.GrossMargins, 0.75)

	churn := 0.05
	switch {
	case in.growth > 0.5:
		churn = 0.03
	case in.growth > 0.3:
		churn = 0.04
	}
	lifetimeMonths := 1 / churn

	customers := in.revenue / typicalContractValue
	ltv := typicalContractValue / 12 * lifetimeMonths * grossMargin

	newCustomers := customers * 0.2
	if in.growth > 0 {
		newCustomers = in.revenue * in.growth / typicalContractValue
	}
	cac := typicalContractValue * 0.3
	if newCustomers > 0 {
		cac = in.revenue * salesMarketingRatio / newCustomers
	}
	ratio := 3.0
	if cac > 0 {
		ratio = ltv / cac
	}

	efficiency := 0.8
	switch {
	case ratio > 5:
		efficiency = 1.5
	case ratio > 3:
		efficiency = 1.3
	case ratio > 2:
		efficiency = 1.1
	}

	payback := 24.0
	if monthly := typicalContractValue * grossMargin / 12; monthly > 0 {
		payback = cac / monthly
	}
	paybackAdj := 0.8
	switch {
	case payback < 12:
		paybackAdj = 1.2
	case payback < 18:
		paybackAdj = 1.0
	}

	multiple := saasBaseRevenueMultiple * efficiency * paybackAdj
	ev := in.revenue * multiple
	return ZeroFCFMethod{
		Key:             zeroUnitEconomics,
		Label:           "Unit Economics",
		FairValue:       in.perShare(ev),
		EnterpriseValue: ev,
		DataQuality:     qualityMedium,
		Metrics: map[string]float64{
			"ltv":                   ltv,
			"cac":                   cac,
			"ltv_cac_ratio":         ratio,
			"payback_period_months": payback,
			"estimated_customers":   customers,
			"estimated_arpu":        typicalContractValue,
			"monthly_churn_pct":     churn * 100,
			"revenue_multiple":      multiple,
		},
		Note: "Metrics estimated from revenue and growth data",
	}, true
}

// terminalValue projects five years of decaying revenue growth and prices the
// final year at a maturity-scaled sector multiple.
func (z *ZeroFCFEngine) terminalValue(in zeroInputs) (ZeroFCFMethod, bool) {
	history := in.fin.IncomeStatement.Head("Total Revenue", 4)
	current := in.info.TotalRevenue
	if current == 0 && len(history) > 0 {
		current = history[0]
	}
	if current == 0 {
		return ZeroFCFMethod{}, false
	}

	cagr := types.Or(in.info.RevenueGrowth, 0.15)
	if len(history) >= 2 {
		if oldest := history[len(history)-1]; oldest > 0 {
			cagr = math.Pow(current/oldest, 1/float64(len(history)-1)) - 1
		}
	}

	growth := cagr
	revenue := current
	projected := make([]float64, 0, terminalYears)
	for range terminalYears {
		growth = math.Max(growth*growthDecay, terminalGrowthFloor)
		revenue *= 1 + growth
		projected = append(projected, revenue)
	}
	terminalRevenue := projected[len(projected)-1]

	multiple := z.sectors.Lookup(sector.RevenueMultiple, in.info.Sector)
	switch {
	case growth < 0.05:
		multiple *= 0.6
	case growth < 0.10:
		multiple *= 0.8
	}
	tv := terminalRevenue * multiple

	wacc := terminalFallbackWACC
	if beta := types.Or(in.info.Beta, 1.0); beta > 0 {
		wacc = terminalRiskFree + beta*terminalMarketPremium
	}
	pvTerminal := tv / math.Pow(1+wacc, terminalYears)
	pvNear := 0.0
	for i, r := range projected {
		pvNear += r / math.Pow(1+wacc, float64(i+1))
	}
	ev := pvTerminal + pvNear*nearTermRevenueWeight

	quality := qualityMedium
	if len(history) >= 3 {
		quality = qualityHigh
	}
	return ZeroFCFMethod{
		Key:             zeroTerminalValue,
		Label:           "Revenue Terminal Value",
		FairValue:       in.perShare(ev),
		EnterpriseValue: ev,
		DataQuality:     quality,
		Metrics: map[string]float64{
			"terminal_value":      tv,
			"terminal_revenue":    terminalRevenue,
			"terminal_multiple":   multiple,
			"historical_cagr_pct": cagr * 100,
			"terminal_growth_pct": growth * 100,
			"wacc_pct":            wacc * 100,
		},
	}, true
}

func detectCompanyType(info types.Info) string {
	sec, industry := info.Sector, info.Industry
	switch {
	case strings.Contains(industry, "Software") || strings.Contains(industry, "SaaS"):
		return "SaaS"
	case strings.Contains(sec, "Technology") && strings.Contains(industry, "Application"):
		return "Software"
	case strings.Contains(industry, "Internet") || strings.Contains(industry, "E-commerce") || strings.Contains(industry, "E-Commerce"):
		return "E-commerce"
	case sec == "Technology":
		return "Technology"
	case sec == "Healthcare" && (strings.Contains(industry, "Biotech") || strings.Contains(industry, "Pharmaceutical")):
		return "Biotech"
	case sec != "":
		return sec
	default:
		return "Default"
	}
}

func weightedFairValue(methods []ZeroFCFMethod, companyType string) float64 {
	weights, ok := zeroFCFWeights[companyType]
	if !ok {
		weights = zeroFCFWeights["Default"]
	}
	var sum, total float64
	for _, mv := range methods {
		w, ok := weights[mv.Key]
		if !ok {
			w = 0.1
		}
		switch mv.DataQuality {
		case qualityHigh:
			w *= 1.2
		case qualityLow:
			w *= 0.7
		}
		sum += mv.FairValue * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

func primaryMethod(methods []ZeroFCFMethod, companyType string) string {
	order, ok := zeroFCFPriority[companyType]
	if !ok {
		order = zeroFCFPriority["Default"]
	}
	for _, key := range order {
		for _, mv := range methods {
			if mv.Key == key {
				return key
			}
		}
	}
	return methods[0].Key
}

func confidence(methods []ZeroFCFMethod) string {
	high := 0
	for _, mv := range methods {
		if mv.DataQuality == qualityHigh {
			high++
		}
	}
	switch {
	case len(methods) >= 3 && high >= 2:
		return qualityHigh
	case len(methods) >= 2 && high >= 1:
		return qualityMedium
	default:
		return qualityLow
	}
}
