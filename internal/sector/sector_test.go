package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tbl := Default()

	tests := []struct {
		name   string
		kind   Kind
		sector string
		want   float64
	}{
		{"known price to sales", PriceToSales, "Technology", 5.0},
		{"price to sales fallback", PriceToSales, "Utilities", 3.0},
		{"mid cycle pe", MidCyclePE, "Energy", 12.0},
		{"mid cycle fallback", MidCyclePE, "", 15.0},
		{"commodity pb", CommodityPB, "Materials", 1.5},
		{"revenue multiple saas", RevenueMultiple, "SaaS", 10.0},
		{"revenue multiple fallback", RevenueMultiple, "Unknown", 2.5},
		{"ebitda multiple", EBITDAMultiple, "Real Estate", 14.0},
		{"ebitda fallback", EBITDAMultiple, "Default", 12.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tbl.Lookup(tt.kind, tt.sector))
		})
	}
	assert.Equal(t, Version, tbl.Version())
}

func TestWithOverridesCopies(t *testing.T) {
	base := Default()

	tbl, err := base.WithOverrides(map[Kind]map[string]float64{
		PriceToSales: {"Technology": 6.5, "Default": 2.0},
	})
	require.NoError(t, err)

	assert.Equal(t, 6.5, tbl.Lookup(PriceToSales, "Technology"))
	assert.Equal(t, 2.0, tbl.Lookup(PriceToSales, "Utilities"))
	assert.Equal(t, Version+"+local", tbl.Version())

	// built-in table untouched
	assert.Equal(t, 5.0, base.Lookup(PriceToSales, "Technology"))
	assert.Equal(t, 3.0, base.Fallback(PriceToSales))
}

func TestWithOverridesRejectsBadInput(t *testing.T) {
	_, err := Default().WithOverrides(map[Kind]map[string]float64{"bogus": {"Technology": 1}})
	assert.Error(t, err)

	_, err = Default().WithOverrides(map[Kind]map[string]float64{MidCyclePE: {"Energy": 0}})
	assert.Error(t, err)

	same, err := Default().WithOverrides(nil)
	require.NoError(t, err)
	assert.Same(t, Default(), same)
}
