package zerodha

import (
	"slices"
	"sync"
	"time"

	"stock-analyzer/internal/types"
)

// candleCache keeps the latest fetch per symbol, valid for the calendar day
// it was made on.
type candleCache struct {
	entries map[string]cacheEntry
	mu      sync.RWMutex
}

type cacheEntry struct {
	day  string
	days int
	bars []types.Bar
}

func newCandleCache() *candleCache {
	return &candleCache{
		entries: make(map[string]cacheEntry),
	}
}

// get serves a request for days bars from an entry of the same day that
// fetched at least as many.
func (cc *candleCache) get(symbol string, days int, now time.Time) ([]types.Bar, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	e, ok := cc.entries[symbol]
	if !ok || e.day != now.Format(time.DateOnly) || e.days < days {
		return nil, false
	}
	bars := e.bars
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return slices.Clone(bars), true
}

func (cc *candleCache) put(symbol string, days int, now time.Time, bars []types.Bar) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.entries[symbol] = cacheEntry{
		day:  now.Format(time.DateOnly),
		days: days,
		bars: slices.Clone(bars),
	}
}
