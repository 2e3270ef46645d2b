package dcf

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"stock-analyzer/internal/types"
)

// Param names the rate swept by Sensitivity.
type Param string

const (
	ParamGrowthRate     Param = "growth_rate"
	ParamWACC           Param = "wacc"
	ParamTerminalGrowth Param = "terminal_growth"
)

type SensitivityPoint struct {
	ParamValue      float64 `json:"param_value"`
	FairValue       float64 `json:"fair_value"`
	EnterpriseValue float64 `json:"enterprise_value"`
}

type SensitivityResult struct {
	Param   Param              `json:"param_name"`
	Results []SensitivityPoint `json:"results"`
}

// Sensitivity holds base fixed except for param, which takes each of values
// in turn. Values that fail validation are skipped.
func (c *Calculator) Sensitivity(_ context.Context, base Params, param Param, values []float64) (res *SensitivityResult, err error) {
	defer types.Recover(opSensitivity, &err)

	var set func(p *Params, v float64)
	switch param {
	case ParamGrowthRate:
		set = func(p *Params, v float64) { p.GrowthRate = v }
	case ParamWACC:
		set = func(p *Params, v float64) { p.WACC = v }
	case ParamTerminalGrowth:
		set = func(p *Params, v float64) { p.TerminalGrowth = v }
	default:
		return nil, types.Invalid(opSensitivity, fmt.Sprintf("unknown sensitivity parameter %q", param))
	}

	res = &SensitivityResult{Param: param, Results: []SensitivityPoint{}}
	for _, v := range values {
		p := base
		set(&p, v)
		if p.Validate() != nil {
			continue
		}
		r := detailed(p)
		res.Results = append(res.Results, SensitivityPoint{
			ParamValue:      v,
			FairValue:       r.FairValuePerShare,
			EnterpriseValue: r.EnterpriseValue,
		})
	}
	return res, nil
}

// Table is a growth-rate by WACC grid of fair values per share. Cells whose
// inputs fail validation are NaN.
type Table struct {
	GrowthRates []float64   `json:"-"`
	WACCs       []float64   `json:"-"`
	Values      [][]float64 `json:"-"`
}

// TwoWay evaluates every growth rate against every WACC with the remaining
// inputs taken from base.
func (c *Calculator) TwoWay(_ context.Context, base Params, growthRates, waccs []float64) *Table {
	t := &Table{
		GrowthRates: growthRates,
		WACCs:       waccs,
		Values:      make([][]float64, len(growthRates)),
	}
	for i, g := range growthRates {
		row := make([]float64, len(waccs))
		for j, w := range waccs {
			p := base
			p.GrowthRate, p.WACC = g, w
			if p.Validate() != nil {
				row[j] = math.NaN()
				continue
			}
			row[j] = detailed(p).FairValuePerShare
		}
		t.Values[i] = row
	}
	return t
}

// RowLabels are the growth rates formatted as percentages.
func (t *Table) RowLabels() []string {
	return percentLabels(t.GrowthRates)
}

// ColumnLabels are the WACCs formatted as percentages.
func (t *Table) ColumnLabels() []string {
	return percentLabels(t.WACCs)
}

// At returns the cell for growth row i and WACC column j.
func (t *Table) At(i, j int) float64 {
	return t.Values[i][j]
}

// MarshalJSON writes labelled rows with NaN cells as null.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(t.Values))
	for i, row := range t.Values {
		rows[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				rows[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Index   []string     `json:"growth_rate"`
		Columns []string     `json:"wacc"`
		Values  [][]*float64 `json:"values"`
	}{t.RowLabels(), t.ColumnLabels(), rows})
}

func percentLabels(rates []float64) []string {
	out := make([]string, len(rates))
	for i, r := range rates {
		out[i] = fmt.Sprintf("%.1f%%", r*100)
	}
	return out
}
