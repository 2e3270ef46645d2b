// Package options flags call strikes trading far above their open interest.
package options

import (
	"context"
	"slices"
	"strings"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/types"
)

const (
	TypeCall         = "CALL"
	SignalUnusual    = "Unusual activity"
	MaxOpportunities = 10

	unusualRatio = 2.0
)

// Opportunity is one call strike with unusual volume.
type Opportunity struct {
	Type              string  `json:"type"`
	Strike            float64 `json:"strike"`
	Expiration        string  `json:"expiration"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"oi"`
	ImpliedVolatility float64 `json:"iv"`
	VolumeOIRatio     float64 `json:"vol_oi_ratio"`
	Signal            string  `json:"signal"`
}

// FindUnusualActivity scans calls in expiration order and returns at most ten
// strikes whose volume exceeds twice the open interest. Zero open interest
// counts as one contract.
func FindUnusualActivity(ctx context.Context, chains []types.OptionChain) []Opportunity {
	ordered := slices.Clone(chains)
	slices.SortStableFunc(ordered, func(a, b types.OptionChain) int {
		return strings.Compare(a.Expiration, b.Expiration)
	})

	out := []Opportunity{}
	for _, chain := range ordered {
		for _, c := range chain.Calls {
			oi := c.OpenInterest
			if oi == 0 {
				oi = 1
			}
			ratio := c.Volume / oi
			if ratio <= unusualRatio {
				continue
			}
			out = append(out, Opportunity{
				Type:              TypeCall,
				Strike:            c.Strike,
				Expiration:        chain.Expiration,
				Volume:            c.Volume,
				OpenInterest:      c.OpenInterest,
				ImpliedVolatility: c.ImpliedVolatility,
				VolumeOIRatio:     ratio,
				Signal:            SignalUnusual,
			})
			if len(out) == MaxOpportunities {
				logger.Debug(ctx, "Unusual options activity capped", "limit", MaxOpportunities)
				return out
			}
		}
	}
	return out
}
