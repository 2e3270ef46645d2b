package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementUnmarshalNulls(t *testing.T) {
	var fin Financials
	err := json.Unmarshal([]byte(`{"cash_flow":{"Free Cash Flow":[100, null, 80]}}`), &fin)
	require.NoError(t, err)

	row := fin.CashFlow["Free Cash Flow"]
	require.Len(t, row, 3)
	assert.Equal(t, 100.0, row[0])
	assert.True(t, math.IsNaN(row[1]))
	assert.Equal(t, []float64{100, 80}, fin.CashFlow.Head("Free Cash Flow", 4))
}

func TestStatementHeadAndLatest(t *testing.T) {
	s := Statement{
		"Basic EPS":  {5, 4, 3, 2, 1, 0.5},
		"Net Income": {math.NaN(), 10},
	}

	tests := []struct {
		name string
		item string
		n    int
		want []float64
	}{
		{"truncates to n", "Basic EPS", 5, []float64{5, 4, 3, 2, 1}},
		{"shorter row", "Basic EPS", 10, []float64{5, 4, 3, 2, 1, 0.5}},
		{"drops missing", "Net Income", 2, []float64{10}},
		{"absent row", "Revenue", 3, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Head(tt.item, tt.n))
		})
	}

	assert.Equal(t, 5.0, s.Latest("Basic EPS"))
	assert.Equal(t, 0.0, s.Latest("Net Income"))
	assert.Equal(t, 0.0, s.Latest("Missing"))
	assert.True(t, s.Has("Basic EPS"))
	assert.False(t, s.Has("Missing"))
}

func TestInfoDefaults(t *testing.T) {
	info := Info{RegularMarketPrice: 42}
	assert.Equal(t, 42.0, info.Price())

	info.CurrentPrice = 50
	assert.Equal(t, 50.0, info.Price())

	assert.Equal(t, 1.0, Or(info.Beta, 1.0))
	info.Beta = Float(1.3)
	assert.Equal(t, 1.3, Or(info.Beta, 1.0))
}

func TestUpside(t *testing.T) {
	assert.InDelta(t, 25.0, Upside(125, 100), 1e-9)
	assert.Equal(t, 0.0, Upside(125, 0))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Insufficient("DCF", "No cash flow data available"))

	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrInvalidParameter))
	assert.Equal(t, InsufficientData, KindOf(err))
	assert.Equal(t, "wrapped: No cash flow data available", err.Error())
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover("NAV", &err)
		var m map[string]int
		m["boom"] = 1
		return nil
	}

	err := run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrComputationFailure))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "NAV", e.Method)
	assert.NotEmpty(t, e.Msg)
}
