package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SourceSynthetic = "SYNTHETIC"
	SourceKite      = "KITE"
)

type Config struct {
	Valuation struct {
		RiskFreeRate      float64 `yaml:"risk_free_rate"`
		MarketRiskPremium float64 `yaml:"market_risk_premium"`
		TerminalGrowth    float64 `yaml:"terminal_growth"`
		DCFGrowthRate     float64 `yaml:"dcf_growth_rate"`
		ProjectionYears   int     `yaml:"projection_years"`
		IndustryPE        float64 `yaml:"industry_pe"`
		MaxPE             float64 `yaml:"max_pe"`
		PBTarget          float64 `yaml:"pb_target"`
		PEGMax            float64 `yaml:"peg_max"`
	} `yaml:"valuation"`
	EnhancedDCF struct {
		Simulations int `yaml:"simulations"`
		Workers     int `yaml:"workers"`
		// Seed 0 seeds from the clock.
		Seed           uint64  `yaml:"seed"`
		GrowthStdDev   float64 `yaml:"growth_stddev"`
		WACCStdDev     float64 `yaml:"wacc_stddev"`
		TerminalStdDev float64 `yaml:"terminal_stddev"`
	} `yaml:"enhanced_dcf"`
	Technical struct {
		RSIPeriod         int     `yaml:"rsi_period"`
		RSIOversold       float64 `yaml:"rsi_oversold"`
		RSIOverbought     float64 `yaml:"rsi_overbought"`
		BBWindow          int     `yaml:"bb_window"`
		BBStdDev          float64 `yaml:"bb_stddev"`
		ADXPeriod         int     `yaml:"adx_period"`
		ADXTrendThreshold float64 `yaml:"adx_trend_threshold"`
		NearLevelPct      float64 `yaml:"near_level_pct"`
		VolumeSurgeRatio  float64 `yaml:"volume_surge_ratio"`
	} `yaml:"technical"`
	Scoring struct {
		Weights struct {
			Valuation    float64 `yaml:"valuation"`
			Technical    float64 `yaml:"technical"`
			Sentiment    float64 `yaml:"sentiment"`
			Momentum     float64 `yaml:"momentum"`
			Fundamentals float64 `yaml:"fundamentals"`
		} `yaml:"weights"`
	} `yaml:"scoring"`
	Risk struct {
		RiskFreeRate float64 `yaml:"risk_free_rate"`
	} `yaml:"risk"`
	// SectorBenchmarks overrides entries of the built-in table, keyed by
	// benchmark kind then sector.
	SectorBenchmarks map[string]map[string]float64 `yaml:"sector_benchmarks"`
	MarketData       struct {
		Source         string `yaml:"source"`
		Exchange       string `yaml:"exchange"`
		APIKeyEnv      string `yaml:"api_key_env"`
		AccessTokenEnv string `yaml:"access_token_env"`
		LookbackDays   int    `yaml:"lookback_days"`
	} `yaml:"marketdata"`
	AnalysisLog struct {
		Dir string `yaml:"dir"`
	} `yaml:"analysis_log"`
}

// Default returns a config with every documented default filled in.
func Default() *Config {
	var c Config

	c.Valuation.RiskFreeRate = 0.04
	c.Valuation.MarketRiskPremium = 0.08
	c.Valuation.TerminalGrowth = 0.025
	c.Valuation.DCFGrowthRate = 0.10
	c.Valuation.ProjectionYears = 5
	c.Valuation.IndustryPE = 20
	c.Valuation.MaxPE = 25
	c.Valuation.PBTarget = 1.5
	c.Valuation.PEGMax = 2.0

	c.EnhancedDCF.Simulations = 1000
	c.EnhancedDCF.Workers = 1
	c.EnhancedDCF.GrowthStdDev = 0.03
	c.EnhancedDCF.WACCStdDev = 0.015
	c.EnhancedDCF.TerminalStdDev = 0.005

	c.Technical.RSIPeriod = 14
	c.Technical.RSIOversold = 30
	c.Technical.RSIOverbought = 70
	c.Technical.BBWindow = 20
	c.Technical.BBStdDev = 2
	c.Technical.ADXPeriod = 14
	c.Technical.ADXTrendThreshold = 25
	c.Technical.NearLevelPct = 0.02
	c.Technical.VolumeSurgeRatio = 1.5

	c.Scoring.Weights.Valuation = 0.30
	c.Scoring.Weights.Technical = 0.25
	c.Scoring.Weights.Sentiment = 0.15
	c.Scoring.Weights.Momentum = 0.15
	c.Scoring.Weights.Fundamentals = 0.15

	c.Risk.RiskFreeRate = 0.045

	c.MarketData.Source = SourceSynthetic
	c.MarketData.Exchange = "NSE"
	c.MarketData.APIKeyEnv = "KITE_API_KEY"
	c.MarketData.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	c.MarketData.LookbackDays = 365

	c.AnalysisLog.Dir = "analysis_logs"
	return &c
}

func (c *Config) Validate() error {
	v := c.Valuation
	if v.ProjectionYears < 1 || v.ProjectionYears > 20 {
		return fmt.Errorf("valuation.projection_years must be between 1-20, got %d", v.ProjectionYears)
	}
	if v.RiskFreeRate < 0 || v.MarketRiskPremium < 0 {
		return errors.New("valuation.risk_free_rate and market_risk_premium cannot be negative")
	}
	if v.TerminalGrowth < 0 || v.TerminalGrowth > 0.1 {
		return fmt.Errorf("valuation.terminal_growth must be between 0-0.1, got %.4f", v.TerminalGrowth)
	}
	if v.MaxPE <= 0 || v.PBTarget <= 0 || v.PEGMax <= 0 || v.IndustryPE <= 0 {
		return errors.New("valuation multiples must be positive")
	}

	if c.EnhancedDCF.Simulations <= 0 {
		return fmt.Errorf("enhanced_dcf.simulations must be positive, got %d", c.EnhancedDCF.Simulations)
	}
	if c.EnhancedDCF.Workers <= 0 {
		return fmt.Errorf("enhanced_dcf.workers must be positive, got %d", c.EnhancedDCF.Workers)
	}

	t := c.Technical
	if t.RSIPeriod <= 0 || t.BBWindow <= 0 || t.ADXPeriod <= 0 {
		return errors.New("technical periods must be positive")
	}
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("technical.rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", t.RSIOversold, t.RSIOverbought)
	}

	w := c.Scoring.Weights
	sum := 0.0
	for name, val := range map[string]float64{
		"valuation":    w.Valuation,
		"technical":    w.Technical,
		"sentiment":    w.Sentiment,
		"momentum":     w.Momentum,
		"fundamentals": w.Fundamentals,
	} {
		if val < 0 {
			return fmt.Errorf("scoring.weights.%s cannot be negative, got %.2f", name, val)
		}
		sum += val
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("scoring.weights must sum to 1.0, got %.4f", sum)
	}

	switch c.MarketData.Source {
	case SourceSynthetic, SourceKite:
	default:
		return fmt.Errorf("invalid marketdata.source '%s': must be '%s' or '%s'", c.MarketData.Source, SourceSynthetic, SourceKite)
	}
	if c.MarketData.LookbackDays <= 0 {
		return fmt.Errorf("marketdata.lookback_days must be positive, got %d", c.MarketData.LookbackDays)
	}
	return nil
}

// LoadConfig reads path over the defaults, so omitted keys keep their default
// values.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.MarketData.Source = strings.ToUpper(c.MarketData.Source)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
