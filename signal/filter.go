package signal

import (
	"fmt"
	"math"
	"strings"

	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/indicator"
)

// FilterConfig holds the thresholds and toggles of the four signal filters
type FilterConfig struct {
	MinStrength      float64 // strength filter threshold
	MaxATRPercentile float64 // volatility filter: ATR percentile must not exceed
	MinTrendSlope    float64 // trend filter: |long-EMA slope| must reach

	EnableStrength   bool
	EnableVolatility bool
	EnableTrend      bool
	EnableConflict   bool
}

// DefaultFilterConfig returns the standard filter settings with every filter on
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinStrength:      50,
		MaxATRPercentile: 90,
		MinTrendSlope:    0.1,
		EnableStrength:   true,
		EnableVolatility: true,
		EnableTrend:      true,
		EnableConflict:   true,
	}
}

// FilterResult reports the filter verdict. Pass is the AND of every enabled
// filter; Failed names the filters that rejected the signal.
type FilterResult struct {
	Pass     bool
	Failed   []string
	Warnings []string
}

// Reason renders the failed filters as a single diagnostic string
func (r FilterResult) Reason() string {
	if r.Pass {
		return "pass"
	}
	return "failed: " + strings.Join(r.Failed, ", ")
}

// Filter applies the strength, volatility, trend and conflict filters.
// A filter whose input column is missing passes unconditionally and records a
// warning, so a sparse frame degrades loudly instead of silently rejecting.
type Filter struct {
	cfg FilterConfig
	log core.Logger
}

// NewFilter creates a filter with the given configuration
func NewFilter(cfg FilterConfig, log core.Logger) *Filter {
	return &Filter{cfg: cfg, log: log}
}

// Apply evaluates every enabled filter for a candidate signal at frame index i
func (fl *Filter) Apply(f *core.Frame, i int, strength float64, entrySignal, exitLevel int) FilterResult {
	res := FilterResult{Pass: true}

	if fl.cfg.EnableStrength {
		if math.IsNaN(strength) {
			res.warn(fl.log, f.Ticker, "strength", "missing strength score")
		} else if strength < fl.cfg.MinStrength {
			res.fail(fmt.Sprintf("strength %.0f < %.0f", strength, fl.cfg.MinStrength))
		}
	}

	if fl.cfg.EnableVolatility {
		if pct, ok := metadataAt(f, indicator.ColATRPercentile, i); !ok {
			res.warn(fl.log, f.Ticker, "volatility", "missing ATR percentile column")
		} else if pct > fl.cfg.MaxATRPercentile {
			res.fail(fmt.Sprintf("volatility pct %.0f > %.0f", pct, fl.cfg.MaxATRPercentile))
		}
	}

	if fl.cfg.EnableTrend {
		if sl, ok := metadataAt(f, indicator.ColSlopeLong, i); !ok {
			res.warn(fl.log, f.Ticker, "trend", "missing long-EMA slope column")
		} else if math.Abs(sl) < fl.cfg.MinTrendSlope {
			res.fail(fmt.Sprintf("trend slope %.3f < %.3f", math.Abs(sl), fl.cfg.MinTrendSlope))
		}
	}

	if fl.cfg.EnableConflict && entrySignal != 0 && exitLevel != 0 {
		res.fail("conflicting entry and exit signals")
	}

	return res
}

func (r *FilterResult) fail(reason string) {
	r.Pass = false
	r.Failed = append(r.Failed, reason)
}

func (r *FilterResult) warn(log core.Logger, ticker, filter, msg string) {
	r.Warnings = append(r.Warnings, filter+": "+msg)
	if log != nil {
		log.WithField("ticker", ticker).WithField("filter", filter).Warn(msg)
	}
}
