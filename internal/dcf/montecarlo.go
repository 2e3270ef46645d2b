package dcf

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-analyzer/internal/stats"
	"stock-analyzer/internal/types"
)

// Sampling bounds applied to every Monte Carlo draw.
const (
	minSampledGrowth   = 0.0
	maxSampledGrowth   = 0.5
	minSampledWACC     = 0.05
	maxSampledWACC     = 0.25
	minSampledTerminal = 0.0
	maxSampledTerminal = 0.05
)

// Distribution is a normal distribution for one sampled rate.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
}

type MonteCarloParams struct {
	BaseCashFlow      float64      `json:"base_cash_flow"`
	GrowthRate        Distribution `json:"growth_rate"`
	WACC              Distribution `json:"wacc"`
	TerminalGrowth    Distribution `json:"terminal_growth"`
	ProjectionYears   int          `json:"projection_years"`
	Cash              float64      `json:"cash"`
	Debt              float64      `json:"debt"`
	SharesOutstanding float64      `json:"shares_outstanding"`
	Simulations       int          `json:"num_simulations"`
	// Seed makes runs reproducible for a fixed Workers count. Zero seeds from
	// the clock.
	Seed uint64 `json:"seed,omitempty"`
	// Workers splits the simulations across goroutines; values below one run
	// sequentially.
	Workers int `json:"workers,omitempty"`
}

// Interval is a [Low, High] confidence band.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Percentiles reported for the simulated fair values.
var Percentiles = []int{5, 10, 25, 50, 75, 90, 95}

type MonteCarloResult struct {
	FairValue             stats.Summary       `json:"fair_value"`
	Percentiles           map[int]float64     `json:"fair_value_percentiles"`
	EnterpriseValueMean   float64             `json:"enterprise_value_mean"`
	EnterpriseValueMedian float64             `json:"enterprise_value_median"`
	FairValues            []float64           `json:"all_fair_values"`
	EnterpriseValues      []float64           `json:"all_enterprise_values"`
	Successful            int                 `json:"num_successful_simulations"`
	ConfidenceIntervals   map[string]Interval `json:"confidence_intervals"`
}

type draw struct {
	fairValue, enterpriseValue float64
}

// MonteCarlo samples growth, WACC and terminal growth from normal
// distributions, clamps each draw to its sampling bounds, discards draws where
// WACC does not exceed terminal growth and aggregates the successful runs.
func (c *Calculator) MonteCarlo(ctx context.Context, p MonteCarloParams) (res *MonteCarloResult, err error) {
	defer types.Recover(opMonteCarlo, &err)

	if p.Simulations <= 0 {
		return nil, types.Invalid(opMonteCarlo, "Number of simulations must be positive")
	}

	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := max(1, p.Workers)
	if p.Simulations < workers {
		workers = max(1, p.Simulations)
	}

	chunks := make([][]draw, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		n := p.Simulations / workers
		if w < p.Simulations%workers {
			n++
		}
		g.Go(func() (err error) {
			// panics do not cross goroutines
			defer types.Recover(opMonteCarlo, &err)

			rng := rand.New(rand.NewPCG(seed, uint64(w)))
			out := make([]draw, 0, n)
			for i := range n {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if d, ok := p.simulate(rng); ok {
					out = append(out, d)
				}
			}
			chunks[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if types.KindOf(err) != 0 {
			return nil, err
		}
		return nil, types.Failure(opMonteCarlo, err.Error())
	}

	var fairValues, evs []float64
	for _, chunk := range chunks {
		for _, d := range chunk {
			fairValues = append(fairValues, d.fairValue)
			evs = append(evs, d.enterpriseValue)
		}
	}
	if len(fairValues) == 0 {
		return nil, types.Insufficient(opMonteCarlo, "No valid simulations completed")
	}
	return aggregate(fairValues, evs), nil
}

func (p MonteCarloParams) simulate(rng *rand.Rand) (draw, bool) {
	sample := func(d Distribution, lo, hi float64) float64 {
		return stats.Clamp(d.Mean+d.StdDev*rng.NormFloat64(), lo, hi)
	}
	run := Params{
		BaseCashFlow:      p.BaseCashFlow,
		GrowthRate:        sample(p.GrowthRate, minSampledGrowth, maxSampledGrowth),
		WACC:              sample(p.WACC, minSampledWACC, maxSampledWACC),
		TerminalGrowth:    sample(p.TerminalGrowth, minSampledTerminal, maxSampledTerminal),
		ProjectionYears:   p.ProjectionYears,
		Cash:              p.Cash,
		Debt:              p.Debt,
		SharesOutstanding: p.SharesOutstanding,
	}
	if run.WACC <= run.TerminalGrowth || run.Validate() != nil {
		return draw{}, false
	}
	r := detailed(run)
	return draw{fairValue: r.FairValuePerShare, enterpriseValue: r.EnterpriseValue}, true
}

func aggregate(fairValues, evs []float64) *MonteCarloResult {
	sorted := stats.Sorted(fairValues)
	pct := make(map[int]float64, len(Percentiles))
	for _, q := range Percentiles {
		pct[q] = stats.PercentileSorted(sorted, float64(q))
	}
	return &MonteCarloResult{
		FairValue:             stats.Summarize(fairValues),
		Percentiles:           pct,
		EnterpriseValueMean:   stats.Mean(evs),
		EnterpriseValueMedian: stats.Median(evs),
		FairValues:            fairValues,
		EnterpriseValues:      evs,
		Successful:            len(fairValues),
		ConfidenceIntervals: map[string]Interval{
			"50%": {Low: pct[25], High: pct[75]},
			"80%": {Low: pct[10], High: pct[90]},
			"90%": {Low: pct[5], High: pct[95]},
		},
	}
}
