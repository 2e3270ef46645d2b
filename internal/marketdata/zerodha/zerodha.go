// Package zerodha fetches daily candles from Kite Connect historical data.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"golang.org/x/time/rate"

	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/types"
)

const (
	dayInterval = "day"

	// Kite allows three historical-data requests per second.
	requestsPerSecond = 3
)

// kiteClient is the subset of *kiteconnect.Client the source uses.
type kiteClient interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

// Source resolves trading symbols to instrument tokens once per process and
// caches each day's candles per symbol.
type Source struct {
	kc       kiteClient
	exchange string
	mapper   *instrumentMapper
	cache    *candleCache
	limiter  *rate.Limiter
	now      func() time.Time
}

var _ marketdata.HistorySource = (*Source)(nil)

func NewSource(p Params) (*Source, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newSource(kc, p.Exchange), nil
}

func newSource(kc kiteClient, exchange string) *Source {
	if exchange == "" {
		exchange = "NSE"
	}
	return &Source{
		kc:       kc,
		exchange: exchange,
		mapper:   newInstrumentMapper(),
		cache:    newCandleCache(),
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		now:      time.Now,
	}
}

func (s *Source) History(ctx context.Context, symbol string, days int) ([]types.Bar, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	symbol = strings.ToUpper(symbol)
	today := s.now()

	if bars, ok := s.cache.get(symbol, days, today); ok {
		return bars, nil
	}
	token, err := s.token(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	candles, err := s.kc.GetHistoricalData(token, dayInterval, today.AddDate(0, 0, -days), today, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles available for %s", symbol)
	}

	bars := make([]types.Bar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, types.Bar{
			Date:   c.Date.Time,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: float64(c.Volume),
		})
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}

	s.cache.put(symbol, days, today, bars)
	return bars, nil
}

// token loads the exchange's instrument list on first use.
func (s *Source) token(ctx context.Context, symbol string) (int, error) {
	if token, ok := s.mapper.getToken(symbol); ok {
		return token, nil
	}
	if s.mapper.loaded() {
		return 0, fmt.Errorf("unknown symbol %s on %s", symbol, s.exchange)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	instruments, err := s.kc.GetInstrumentsByExchange(s.exchange)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s instruments: %w", s.exchange, err)
	}
	s.mapper.load(instruments)

	token, ok := s.mapper.getToken(symbol)
	if !ok {
		return 0, fmt.Errorf("unknown symbol %s on %s", symbol, s.exchange)
	}
	return token, nil
}
