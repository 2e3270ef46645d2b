// Package report renders the combined analysis of one ticker as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/options"
	"stock-analyzer/internal/risk"
	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/valuation"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat falls back to text for anything it does not recognise.
func ParseFormat(s string) Format {
	if Format(strings.ToLower(s)) == FormatJSON {
		return FormatJSON
	}
	return FormatText
}

// Report gathers every stage of one analysis run. A nil stage failed or was
// skipped; its error, if any, is kept in Errors keyed by stage name.
type Report struct {
	Ticker           string                   `json:"ticker"`
	Timestamp        time.Time                `json:"timestamp"`
	Valuation        *valuation.Result        `json:"valuation,omitempty"`
	Methods          []MethodOutcome          `json:"method_comparison,omitempty"`
	MonteCarlo       *dcf.MonteCarloResult    `json:"monte_carlo,omitempty"`
	Sensitivity      []*dcf.SensitivityResult `json:"sensitivity,omitempty"`
	SensitivityTable *dcf.Table               `json:"sensitivity_table,omitempty"`
	Technical        *technical.Result        `json:"technical,omitempty"`
	Risk             *risk.Metrics            `json:"risk,omitempty"`
	Options          []options.Opportunity    `json:"options,omitempty"`
	Opportunity      *scoring.Result          `json:"buy_opportunity,omitempty"`
	Errors           map[string]string        `json:"errors,omitempty"`
}

// MethodOutcome is one row of the side-by-side valuation comparison.
type MethodOutcome struct {
	Method    valuation.Method `json:"method"`
	FairValue float64          `json:"fair_value,omitempty"`
	Upside    float64          `json:"upside,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Compare flattens engine outcomes, keeping their order.
func Compare(outcomes []valuation.Outcome) []MethodOutcome {
	out := make([]MethodOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		row := MethodOutcome{Method: o.Method}
		switch {
		case o.Err != nil:
			row.Error = o.Err.Error()
		case o.Result != nil:
			row.FairValue, row.Upside = o.Result.FairValue, o.Result.Upside
		}
		out = append(out, row)
	}
	return out
}

// Fail records a failed stage.
func (r *Report) Fail(stage string, err error) {
	if err == nil {
		return
	}
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[stage] = err.Error()
}

// Money renders v with two decimals. NaN and infinities render as "n/a".
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent renders v, already in percent units, with two decimals and a
// trailing "%".
func Percent(v float64) string {
	s := Money(v)
	if s == "n/a" {
		return s
	}
	return s + "%"
}

type Reporter struct {
	outputDir string
}

func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

func (rp *Reporter) Generate(r *Report, format Format) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatText:
		return text(r), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Save writes the report under the output directory and returns its path.
func (rp *Reporter) Save(r *Report, format Format) (string, error) {
	content, err := rp.Generate(r, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(rp.outputDir, 0o755); err != nil {
		return "", err
	}
	ext := "txt"
	if format == FormatJSON {
		ext = "json"
	}
	name := fmt.Sprintf("%s_analysis_%s.%s", r.Ticker, r.Timestamp.Format("2006-01-02_15-04-05"), ext)
	p := filepath.Join(rp.outputDir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func text(r *Report) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 79) + "\n"
	thin := strings.Repeat("-", 79) + "\n"

	sb.WriteString(rule)
	fmt.Fprintf(&sb, "STOCK ANALYSIS REPORT - %s\n", r.Ticker)
	sb.WriteString(rule)
	fmt.Fprintf(&sb, "Generated: %s\n\n", r.Timestamp.Format(time.DateTime))

	if v := r.Valuation; v != nil {
		sb.WriteString("VALUATION\n" + thin)
		fmt.Fprintf(&sb, "Method:        %s\n", v.Method)
		if v.ValuationType != "" {
			fmt.Fprintf(&sb, "Type:          %s\n", v.ValuationType)
		}
		fmt.Fprintf(&sb, "Fair value:    %s\n", Money(v.FairValue))
		fmt.Fprintf(&sb, "Current price: %s\n", Money(v.CurrentPrice))
		fmt.Fprintf(&sb, "Upside:        %s\n", Percent(v.Upside))
		if s := v.Scenarios; s != nil {
			fmt.Fprintf(&sb, "Scenarios:     bear %s / base %s / bull %s\n", Money(s.Bear), Money(s.Base), Money(s.Bull))
		}
		if v.Note != "" {
			fmt.Fprintf(&sb, "Note:          %s\n", v.Note)
		}
		sb.WriteString("\n")
	}

	if len(r.Methods) > 0 {
		sb.WriteString("METHOD COMPARISON\n" + thin)
		for _, m := range r.Methods {
			if m.Error != "" {
				fmt.Fprintf(&sb, "%-28s -- %s\n", m.Method, m.Error)
				continue
			}
			fmt.Fprintf(&sb, "%-28s %s (%s)\n", m.Method, Money(m.FairValue), Percent(m.Upside))
		}
		sb.WriteString("\n")
	}

	if mc := r.MonteCarlo; mc != nil {
		sb.WriteString("MONTE CARLO DCF\n" + thin)
		fmt.Fprintf(&sb, "Simulations:   %d successful\n", mc.Successful)
		fmt.Fprintf(&sb, "Fair value:    mean %s / median %s\n", Money(mc.FairValue.Mean), Money(mc.FairValue.Median))
		levels := make([]string, 0, len(mc.ConfidenceIntervals))
		for k := range mc.ConfidenceIntervals {
			levels = append(levels, k)
		}
		sort.Strings(levels)
		for _, k := range levels {
			ci := mc.ConfidenceIntervals[k]
			fmt.Fprintf(&sb, "CI %-10s %s .. %s\n", k+":", Money(ci.Low), Money(ci.High))
		}
		sb.WriteString("\n")
	}

	if len(r.Sensitivity) > 0 || r.SensitivityTable != nil {
		sb.WriteString("DCF SENSITIVITY\n" + thin)
		for _, sr := range r.Sensitivity {
			if len(sr.Results) == 0 {
				fmt.Fprintf(&sb, "%-16s no valid points\n", sr.Param+":")
				continue
			}
			lo, hi := sr.Results[0], sr.Results[len(sr.Results)-1]
			fmt.Fprintf(&sb, "%-16s %s -> %s over %s .. %s (%d points)\n", sr.Param+":",
				Money(lo.FairValue), Money(hi.FairValue),
				Percent(lo.ParamValue*100), Percent(hi.ParamValue*100), len(sr.Results))
		}
		if tbl := r.SensitivityTable; tbl != nil && len(tbl.Values) > 0 {
			sb.WriteString("\nGrowth \\ WACC")
			for _, c := range tbl.ColumnLabels() {
				fmt.Fprintf(&sb, " %10s", c)
			}
			sb.WriteString("\n")
			for i, row := range tbl.RowLabels() {
				fmt.Fprintf(&sb, "%-13s", row)
				for j := range tbl.WACCs {
					fmt.Fprintf(&sb, " %10s", Money(tbl.At(i, j)))
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	if t := r.Technical; t != nil {
		sb.WriteString("TECHNICALS\n" + thin)
		fmt.Fprintf(&sb, "Trend:         %s\n", t.Trend)
		fmt.Fprintf(&sb, "RSI:           %.1f (%s)\n", t.RSI.Value, t.RSI.Signal)
		fmt.Fprintf(&sb, "MACD:          %.3f / signal %.3f\n", t.MACD.MACD, t.MACD.Signal)
		fmt.Fprintf(&sb, "ADX:           %.1f (%s)\n", t.ADX.Value, t.ADX.Signal)
		fmt.Fprintf(&sb, "Support:       %s\n", Money(t.SupportResistance.Support))
		fmt.Fprintf(&sb, "Resistance:    %s\n", Money(t.SupportResistance.Resistance))
		fmt.Fprintf(&sb, "Volume ratio:  %.2f\n", t.Volume.Ratio)
		for _, p := range t.Patterns {
			fmt.Fprintf(&sb, "Pattern:       %s (%s)\n", p.Name, p.Signal)
		}
		sb.WriteString("\n")
	}

	if m := r.Risk; m != nil {
		sb.WriteString("RISK\n" + thin)
		fmt.Fprintf(&sb, "Rating:        %s\n", m.Rating)
		fmt.Fprintf(&sb, "Beta:          %.2f\n", m.Beta)
		fmt.Fprintf(&sb, "Sharpe:        %.2f\n", m.SharpeRatio)
		fmt.Fprintf(&sb, "Volatility:    %s (avg %s)\n", Percent(m.CurrentVolatility), Percent(m.AverageVolatility))
		fmt.Fprintf(&sb, "Max drawdown:  %s\n", Percent(m.MaxDrawdown))
		fmt.Fprintf(&sb, "VaR 95:        %s / CVaR %s\n", Percent(m.VaR95), Percent(m.CVaR95))
		sb.WriteString("\n")
	}

	if len(r.Options) > 0 {
		fmt.Fprintf(&sb, "UNUSUAL OPTIONS ACTIVITY: %d\n", len(r.Options))
		sb.WriteString(thin)
		for i, o := range r.Options {
			fmt.Fprintf(&sb, "%d. %s %s exp %s vol %.0f oi %.0f (x%.1f)\n",
				i+1, o.Type, Money(o.Strike), o.Expiration, o.Volume, o.OpenInterest, o.VolumeOIRatio)
		}
		sb.WriteString("\n")
	}

	if o := r.Opportunity; o != nil {
		sb.WriteString("BUY OPPORTUNITY\n" + thin)
		fmt.Fprintf(&sb, "Recommendation: %s (%s confidence)\n", o.Recommendation, o.Confidence)
		fmt.Fprintf(&sb, "Score:          %.1f/100\n", o.TotalScore)
		fmt.Fprintf(&sb, "Buy range:      %s .. %s\n", Money(o.BuyRange.Low), Money(o.BuyRange.High))
		fmt.Fprintf(&sb, "Target:         %s\n", Money(o.TargetPrice))
		fmt.Fprintf(&sb, "Stop loss:      %s\n", Money(o.StopLoss))
		fmt.Fprintf(&sb, "Risk/reward:    %.2f\n", o.RiskRewardRatio)
		for _, s := range o.Signals {
			fmt.Fprintf(&sb, "  + %s\n", s)
		}
		sb.WriteString("\n")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("SKIPPED STAGES\n" + thin)
		stages := make([]string, 0, len(r.Errors))
		for k := range r.Errors {
			stages = append(stages, k)
		}
		sort.Strings(stages)
		for _, k := range stages {
			fmt.Fprintf(&sb, "%s: %s\n", k, r.Errors[k])
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule)
	return sb.String()
}
