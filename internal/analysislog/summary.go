package analysislog

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"stock-analyzer/internal/report"
)

// SummaryRow aggregates one ticker's runs within a day.
type SummaryRow struct {
	Ticker         string `csv:"ticker"`
	Runs           int    `csv:"runs"`
	AvgScore       string `csv:"avg_score"`
	LastScore      string `csv:"last_score"`
	Recommendation string `csv:"recommendation"`
	Confidence     string `csv:"confidence"`
	TargetPrice    string `csv:"target_price"`
	StopLoss       string `csv:"stop_loss"`
	LastRun        string `csv:"last_run"`
}

func summaryPath(dir string, day time.Time) string {
	return filepath.Join(dir, "eod", day.In(ist).Format(time.DateOnly)+".csv")
}

// Summarize writes one CSV row per ticker seen on day, latest run winning,
// and returns the file path. A day without entries writes nothing and
// returns "".
func Summarize(dir string, day time.Time) (string, error) {
	entries, err := Read(dir, day)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	type agg struct {
		runs  int
		total float64
		last  Entry
	}
	byTicker := map[string]*agg{}
	for _, e := range entries {
		if e.Result == nil {
			continue
		}
		a := byTicker[e.Ticker]
		if a == nil {
			a = &agg{}
			byTicker[e.Ticker] = a
		}
		a.runs++
		a.total += e.TotalScore
		a.last = e
	}
	if len(byTicker) == 0 {
		return "", nil
	}

	tickers := make([]string, 0, len(byTicker))
	for k := range byTicker {
		tickers = append(tickers, k)
	}
	sort.Strings(tickers)

	rows := make([]*SummaryRow, 0, len(tickers))
	for _, t := range tickers {
		a := byTicker[t]
		rows = append(rows, &SummaryRow{
			Ticker:         t,
			Runs:           a.runs,
			AvgScore:       report.Money(a.total / float64(a.runs)),
			LastScore:      report.Money(a.last.TotalScore),
			Recommendation: a.last.Recommendation,
			Confidence:     a.last.Confidence,
			TargetPrice:    report.Money(a.last.TargetPrice),
			StopLoss:       report.Money(a.last.StopLoss),
			LastRun:        a.last.Time,
		})
	}

	out := summaryPath(dir, day)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return "", err
	}
	return out, nil
}
