// Package dcf is the interactive discounted cash flow calculator: a detailed
// single-point valuation, Monte Carlo simulation over the discount inputs and
// one- and two-way sensitivity sweeps.
package dcf

import (
	"context"
	"math"

	"stock-analyzer/internal/types"
)

const (
	opDetailed    = "DCF Detailed"
	opMonteCarlo  = "DCF Monte Carlo"
	opSensitivity = "DCF Sensitivity"
)

// Params are the inputs of a single DCF run. Rates are fractions.
type Params struct {
	BaseCashFlow      float64 `json:"base_cash_flow"`
	GrowthRate        float64 `json:"growth_rate"`
	WACC              float64 `json:"wacc"`
	TerminalGrowth    float64 `json:"terminal_growth"`
	ProjectionYears   int     `json:"projection_years"`
	Cash              float64 `json:"cash"`
	Debt              float64 `json:"debt"`
	SharesOutstanding float64 `json:"shares_outstanding"`
}

// Validate checks p in a fixed order and reports the first violation.
func (p Params) Validate() error {
	switch {
	case p.SharesOutstanding <= 0:
		return types.Invalid(opDetailed, "Shares outstanding must be positive")
	case p.WACC <= 0 || p.WACC > 0.5:
		return types.Invalid(opDetailed, "WACC must be between 0% and 50%")
	case p.WACC <= p.TerminalGrowth:
		return types.Invalid(opDetailed, "WACC must be greater than terminal growth rate")
	case p.TerminalGrowth < 0 || p.TerminalGrowth > 0.1:
		return types.Invalid(opDetailed, "Terminal growth must be between 0% and 10%")
	case p.BaseCashFlow == 0:
		return types.Invalid(opDetailed, "Base cash flow cannot be zero")
	case p.GrowthRate < -0.5 || p.GrowthRate > 1.0:
		return types.Invalid(opDetailed, "Growth rate must be between -50% and 100%")
	case p.ProjectionYears < 1 || p.ProjectionYears > 20:
		return types.Invalid(opDetailed, "Projection years must be between 1 and 20")
	}
	return nil
}

// YearCashFlow is one projected year.
type YearCashFlow struct {
	Year           int     `json:"year"`
	CashFlow       float64 `json:"cash_flow"`
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`
}

type Result struct {
	FairValuePerShare float64        `json:"fair_value_per_share"`
	EnterpriseValue   float64        `json:"enterprise_value"`
	EquityValue       float64        `json:"equity_value"`
	PVProjected       float64        `json:"pv_projected_cfs"`
	PVTerminal        float64        `json:"pv_terminal_value"`
	TerminalValue     float64        `json:"terminal_value"`
	TerminalCashFlow  float64        `json:"terminal_cf"`
	Projected         []YearCashFlow `json:"projected_cash_flows"`
	Inputs            Params         `json:"inputs"`
}

// Calculator is stateless and safe for concurrent use.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Detailed validates p and returns the full valuation breakdown.
func (c *Calculator) Detailed(_ context.Context, p Params) (res *Result, err error) {
	defer types.Recover(opDetailed, &err)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return detailed(p), nil
}

func detailed(p Params) *Result {
	res := &Result{
		Projected: make([]YearCashFlow, 0, p.ProjectionYears),
		Inputs:    p,
	}
	for year := 1; year <= p.ProjectionYears; year++ {
		cf := p.BaseCashFlow * math.Pow(1+p.GrowthRate, float64(year))
		df := 1 / math.Pow(1+p.WACC, float64(year))
		pv := cf * df
		res.Projected = append(res.Projected, YearCashFlow{
			Year:           year,
			CashFlow:       cf,
			DiscountFactor: df,
			PresentValue:   pv,
		})
		res.PVProjected += pv
	}

	n := float64(p.ProjectionYears)
	res.TerminalCashFlow = p.BaseCashFlow * math.Pow(1+p.GrowthRate, n) * (1 + p.TerminalGrowth)
	res.TerminalValue = res.TerminalCashFlow / (p.WACC - p.TerminalGrowth)
	res.PVTerminal = res.TerminalValue / math.Pow(1+p.WACC, n)

	res.EnterpriseValue = res.PVProjected + res.PVTerminal
	res.EquityValue = res.EnterpriseValue + p.Cash - p.Debt
	res.FairValuePerShare = res.EquityValue / p.SharesOutstanding
	return res
}
