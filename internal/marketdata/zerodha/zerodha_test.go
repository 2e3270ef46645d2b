package zerodha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"
)

type fakeKite struct {
	instruments     kiteconnect.Instruments
	candles         []kiteconnect.HistoricalData
	instrumentCalls int
	historyCalls    int
	lastToken       int
	lastFrom        time.Time
	err             error
}

func (f *fakeKite) GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error) {
	f.instrumentCalls++
	return f.instruments, f.err
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.historyCalls++
	f.lastToken = token
	f.lastFrom = from
	return f.candles, f.err
}

func candles(n int) []kiteconnect.HistoricalData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]kiteconnect.HistoricalData, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = kiteconnect.HistoricalData{
			Date:   models.Time{Time: start.AddDate(0, 0, i)},
			Open:   p,
			High:   p + 2,
			Low:    p - 2,
			Close:  p + 1,
			Volume: 1000 + i,
		}
	}
	return out
}

func newFakeSource(f *fakeKite) *Source {
	s := newSource(f, "")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestHistoryFetchesAndCaches(t *testing.T) {
	f := &fakeKite{
		instruments: kiteconnect.Instruments{
			{InstrumentToken: 408065, Tradingsymbol: "INFY", InstrumentType: "EQ"},
			{InstrumentToken: 999, Tradingsymbol: "INFY24MARFUT", InstrumentType: "FUT"},
		},
		candles: candles(40),
	}
	s := newFakeSource(f)

	bars, err := s.History(context.Background(), "infy", 30)
	require.NoError(t, err)
	require.Len(t, bars, 30)
	assert.Equal(t, 408065, f.lastToken)
	assert.Equal(t, time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), f.lastFrom)
	assert.Equal(t, 110.0, bars[0].Open)
	assert.Equal(t, 1039.0, bars[29].Volume)

	again, err := s.History(context.Background(), "INFY", 20)
	require.NoError(t, err)
	assert.Len(t, again, 20)
	assert.Equal(t, bars[29], again[19])
	assert.Equal(t, 1, f.historyCalls)
	assert.Equal(t, 1, f.instrumentCalls)
}

func TestHistoryErrors(t *testing.T) {
	f := &fakeKite{instruments: kiteconnect.Instruments{{InstrumentToken: 1, Tradingsymbol: "TCS"}}}
	s := newFakeSource(f)

	_, err := s.History(context.Background(), "UNKNOWN", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown symbol UNKNOWN on NSE")

	_, err = s.History(context.Background(), "ALSOUNKNOWN", 10)
	require.Error(t, err)
	assert.Equal(t, 1, f.instrumentCalls)

	_, err = s.History(context.Background(), "TCS", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candles available")

	_, err = s.History(context.Background(), "TCS", 0)
	assert.Error(t, err)

	broken := newFakeSource(&fakeKite{err: errors.New("token expired")})
	_, err = broken.History(context.Background(), "TCS", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestNewSourceNeedsCredentials(t *testing.T) {
	_, err := NewSource(Params{APIKey: "key"})
	assert.Error(t, err)

	s, err := NewSource(Params{APIKey: "key", AccessToken: "token", Exchange: "BSE"})
	require.NoError(t, err)
	assert.Equal(t, "BSE", s.exchange)
}

func TestHistoryHonoursCancellation(t *testing.T) {
	f := &fakeKite{
		instruments: kiteconnect.Instruments{{InstrumentToken: 7, Tradingsymbol: "SBIN", InstrumentType: "EQ"}},
		candles:     candles(5),
	}
	s := newFakeSource(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.History(ctx, "SBIN", 5)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.instrumentCalls)
	assert.Zero(t, f.historyCalls)
}
