// Package sector owns the sector benchmark multiples shared by every valuation
// method. There is exactly one table per process; overrides produce a new
// table rather than mutating the built-in one.
package sector

import (
	"fmt"
	"maps"
	"strings"
)

// Version identifies the built-in benchmark set.
const Version = "2024.1"

// Kind names one benchmark series.
type Kind string

const (
	// PriceToSales is the target P/S used by the revenue multiple method.
	PriceToSales Kind = "price_to_sales"
	// MidCyclePE is the normalized P/E used for cyclical earnings.
	MidCyclePE Kind = "mid_cycle_pe"
	// CommodityPB is the target P/B for commodity producers.
	CommodityPB Kind = "commodity_pb"
	// RevenueMultiple is the EV/Revenue multiple of the Zero-FCF suite.
	RevenueMultiple Kind = "revenue_multiples"
	// EBITDAMultiple is the EV/EBITDA multiple of the Zero-FCF suite.
	EBITDAMultiple Kind = "ebitda_multiples"
)

// DefaultKey is the override key that replaces a series' fallback value.
const DefaultKey = "Default"

type series struct {
	values   map[string]float64
	fallback float64
}

// Table is an immutable set of sector benchmarks.
type Table struct {
	version string
	series  map[Kind]series
}

var builtin = &Table{
	version: Version,
	series: map[Kind]series{
		PriceToSales: {
			values: map[string]float64{
				"Technology":             5.0,
				"Healthcare":             3.5,
				"Communication Services": 2.5,
				"Consumer Discretionary": 1.5,
				"Industrials":            1.2,
				"Consumer Staples":       0.8,
			},
			fallback: 3.0,
		},
		MidCyclePE: {
			values: map[string]float64{
				"Industrials":            16.0,
				"Materials":              14.0,
				"Energy":                 12.0,
				"Consumer Discretionary": 18.0,
				"Financials":             12.0,
				"Technology":             20.0,
			},
			fallback: 15.0,
		},
		CommodityPB: {
			values: map[string]float64{
				"Energy":    1.2,
				"Materials": 1.5,
			},
			fallback: 1.3,
		},
		RevenueMultiple: {
			values: map[string]float64{
				"Technology":             6.0,
				"Software":               8.0,
				"SaaS":                   10.0,
				"E-commerce":             2.5,
				"Biotech":                5.0,
				"Healthcare":             2.0,
				"Consumer Cyclical":      1.0,
				"Consumer Defensive":     1.2,
				"Financial Services":     2.5,
				"Industrials":            1.5,
				"Energy":                 1.0,
				"Materials":              1.2,
				"Real Estate":            3.0,
				"Utilities":              2.0,
				"Communication Services": 3.5,
			},
			fallback: 2.5,
		},
		EBITDAMultiple: {
			values: map[string]float64{
				"Technology":             18.0,
				"Software":               25.0,
				"SaaS":                   30.0,
				"E-commerce":             12.0,
				"Biotech":                15.0,
				"Healthcare":             12.0,
				"Consumer Cyclical":      10.0,
				"Consumer Defensive":     11.0,
				"Financial Services":     8.0,
				"Industrials":            10.0,
				"Energy":                 7.0,
				"Materials":              8.0,
				"Real Estate":            14.0,
				"Utilities":              9.0,
				"Communication Services": 12.0,
			},
			fallback: 12.0,
		},
	},
}

// Default returns the built-in table.
func Default() *Table {
	return builtin
}

// Version reports which benchmark set the table carries.
func (t *Table) Version() string {
	return t.version
}

// Lookup returns the benchmark for sector, or the series fallback.
func (t *Table) Lookup(kind Kind, sector string) float64 {
	s := t.series[kind]
	if v, ok := s.values[sector]; ok {
		return v
	}
	return s.fallback
}

// Has reports whether sector has its own entry in the series.
func (t *Table) Has(kind Kind, sector string) bool {
	_, ok := t.series[kind].values[sector]
	return ok
}

// Fallback returns the value used for unknown sectors.
func (t *Table) Fallback(kind Kind) float64 {
	return t.series[kind].fallback
}

// WithOverrides returns a copy of t with the given entries replaced.
// The DefaultKey entry replaces the series fallback.
func (t *Table) WithOverrides(overrides map[Kind]map[string]float64) (*Table, error) {
	if len(overrides) == 0 {
		return t, nil
	}
	out := &Table{
		version: t.version + "+local",
		series:  make(map[Kind]series, len(t.series)),
	}
	for k, s := range t.series {
		out.series[k] = series{values: maps.Clone(s.values), fallback: s.fallback}
	}
	for kind, entries := range overrides {
		s, ok := out.series[kind]
		if !ok {
			return nil, fmt.Errorf("unknown sector benchmark %q", kind)
		}
		for name, v := range entries {
			if v <= 0 {
				return nil, fmt.Errorf("sector benchmark %s/%s must be positive, got %.2f", kind, name, v)
			}
			if strings.EqualFold(name, DefaultKey) {
				s.fallback = v
				continue
			}
			s.values[name] = v
		}
		out.series[kind] = s
	}
	return out, nil
}
