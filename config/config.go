// Package config handles engine configuration via Viper with the documented
// defaults for every knob.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/quantfoundry/stagetrader/core"
)

// RiskConfig is the risk block of the engine configuration
type RiskConfig struct {
	RiskPercentage          float64             `mapstructure:"risk_percentage"`
	DesiredUnitsPerSignal   int                 `mapstructure:"desired_units_per_signal"`
	SignalStrengthThreshold float64             `mapstructure:"signal_strength_threshold"`
	ATRMultiplier           float64             `mapstructure:"atr_multiplier"`
	StopMA                  string              `mapstructure:"stop_ma"`
	SingleLimit             int                 `mapstructure:"single_limit"`
	CorrelatedLimit         int                 `mapstructure:"correlated_limit"`
	DiversifiedLimit        int                 `mapstructure:"diversified_limit"`
	TotalLimit              int                 `mapstructure:"total_limit"`
	CorrelationGroups       map[string][]string `mapstructure:"correlation_groups"`
	MaxRiskPercentage       float64             `mapstructure:"max_risk_percentage"`
	MaxSingleRisk           float64             `mapstructure:"max_single_risk"`
	MaxCapitalRatio         float64             `mapstructure:"max_capital_ratio"`
}

// FilterConfig is the signal-filter block
type FilterConfig struct {
	MinStrength      float64 `mapstructure:"min_strength"`
	MaxATRPercentile float64 `mapstructure:"max_atr_percentile"`
	MinTrendSlope    float64 `mapstructure:"min_trend_slope"`
	EnableStrength   bool    `mapstructure:"enable_strength"`
	EnableVolatility bool    `mapstructure:"enable_volatility"`
	EnableTrend      bool    `mapstructure:"enable_trend"`
	EnableConflict   bool    `mapstructure:"enable_conflict"`
}

// Config is the full engine configuration
type Config struct {
	InitialCapital     float64 `mapstructure:"initial_capital"`
	CommissionRate     float64 `mapstructure:"commission_rate"`
	SlippagePct        float64 `mapstructure:"slippage_pct"`
	EnableEarlySignals bool    `mapstructure:"enable_early_signals"`
	ExitMergeStrategy  string  `mapstructure:"exit_merge_strategy"`

	UseCache bool   `mapstructure:"use_cache"`
	CacheDir string `mapstructure:"cache_dir"`

	LoaderWorkers int    `mapstructure:"loader_workers"`
	LoaderTimeout string `mapstructure:"loader_timeout"`

	Risk   RiskConfig   `mapstructure:"risk"`
	Filter FilterConfig `mapstructure:"filter"`
}

// setDefaults registers every default on the viper instance
func setDefaults(v *viper.Viper) {
	v.SetDefault("initial_capital", 10_000_000)
	v.SetDefault("commission_rate", 0.00015)
	v.SetDefault("slippage_pct", 0.001)
	v.SetDefault("enable_early_signals", false)
	v.SetDefault("exit_merge_strategy", "sequential")
	v.SetDefault("use_cache", true)
	v.SetDefault("cache_dir", ".stagetrader-cache")
	v.SetDefault("loader_workers", 10)
	v.SetDefault("loader_timeout", "30s")

	v.SetDefault("risk.risk_percentage", 0.01)
	v.SetDefault("risk.desired_units_per_signal", 2)
	v.SetDefault("risk.signal_strength_threshold", 80)
	v.SetDefault("risk.atr_multiplier", 2.0)
	v.SetDefault("risk.stop_ma", "EMA_long")
	v.SetDefault("risk.single_limit", 4)
	v.SetDefault("risk.correlated_limit", 6)
	v.SetDefault("risk.diversified_limit", 10)
	v.SetDefault("risk.total_limit", 12)
	v.SetDefault("risk.max_risk_percentage", 0.02)
	v.SetDefault("risk.max_single_risk", 0.01)
	v.SetDefault("risk.max_capital_ratio", 0.25)

	v.SetDefault("filter.min_strength", 50)
	v.SetDefault("filter.max_atr_percentile", 90)
	v.SetDefault("filter.min_trend_slope", 0.1)
	v.SetDefault("filter.enable_strength", true)
	v.SetDefault("filter.enable_volatility", true)
	v.SetDefault("filter.enable_trend", true)
	v.SetDefault("filter.enable_conflict", true)
}

// Default returns the configuration with every documented default applied
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always unmarshal cleanly
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads a YAML configuration file over the defaults. A missing file
// yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fatal conditions: non-positive capital and negative
// commission or slippage abort the run before it starts.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %f",
			core.ErrInvalidInput, c.InitialCapital)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate must be non-negative, got %f",
			core.ErrInvalidInput, c.CommissionRate)
	}
	if c.SlippagePct < 0 {
		return fmt.Errorf("%w: slippage must be non-negative, got %f",
			core.ErrInvalidInput, c.SlippagePct)
	}
	if _, err := c.ParseLoaderTimeout(); err != nil {
		return err
	}
	return nil
}

// ParseLoaderTimeout parses the loader timeout string ("30s", "1m", "1h30m")
func (c Config) ParseLoaderTimeout() (time.Duration, error) {
	if c.LoaderTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := str2duration.ParseDuration(c.LoaderTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: loader timeout %q: %v", core.ErrInvalidInput, c.LoaderTimeout, err)
	}
	return d, nil
}
