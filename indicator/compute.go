package indicator

import (
	"math"

	"github.com/quantfoundry/stagetrader/core"
)

// Metadata column names written by ComputeAll
const (
	ColATRPercentile    = "atr_pct"
	ColSpreadPercentile = "spread_pct"
	ColSlopeLong        = "slope_long"
)

// Config holds the indicator periods and classifier parameters
type Config struct {
	EMAShort  int
	EMAMid    int
	EMALong   int
	ATRPeriod int

	Triplets [3]Triplet

	DirectionBand float64
	SlopePeriod   int
	Slope         SlopeThresholds
}

// DefaultConfig returns the standard six-stage parameter set
func DefaultConfig() Config {
	return Config{
		EMAShort:      5,
		EMAMid:        20,
		EMALong:       40,
		ATRPeriod:     20,
		Triplets:      DefaultTriplets,
		DirectionBand: DefaultDirectionBand,
		SlopePeriod:   5,
		Slope:         DefaultSlopeThresholds,
	}
}

// Warmup returns the number of bars before every column of the pipeline is
// valid: the slowest EMA pair plus the signal smoothing of the slowest MACD.
func (c Config) Warmup() int {
	warmup := c.EMALong
	for _, t := range c.Triplets {
		if w := t.Slow + t.Smooth - 1; w > warmup {
			warmup = w
		}
	}
	if w := c.EMALong + c.SlopePeriod; w > warmup {
		warmup = w
	}
	return warmup
}

// ComputeAll fills every indicator column of the frame: the three EMAs, ATR,
// the triple MACD with per-line directions, and the percentile metadata
// consumed by the strength scorer and the signal filter. The stage columns are
// filled separately by the stage package.
func ComputeAll(f *core.Frame, cfg Config) {
	closes := f.Close.Values()

	f.EMAShort = EMA(closes, cfg.EMAShort)
	f.EMAMid = EMA(closes, cfg.EMAMid)
	f.EMALong = EMA(closes, cfg.EMALong)
	f.ATR = ATR(f.High.Values(), f.Low.Values(), closes, cfg.ATRPeriod)

	for slot, t := range cfg.Triplets {
		res := MACD(closes, t)
		f.MACDs[slot] = core.MACDColumns{
			Fast:      t.Fast,
			Slow:      t.Slow,
			Smooth:    t.Smooth,
			MACD:      res.MACD,
			Signal:    res.Signal,
			Histogram: res.Histogram,
			Direction: Directions(res.MACD, f.Close, cfg.DirectionBand),
		}
	}

	f.Metadata[ColSlopeLong] = Slope(f.EMALong, cfg.SlopePeriod)
	f.Metadata[ColATRPercentile] = ExpandingPercentile(f.ATR)
	f.Metadata[ColSpreadPercentile] = ExpandingPercentile(maSpread(f))
}

// maSpread computes the normalized total MA spread
// (|EMA_s-EMA_m| + |EMA_m-EMA_l|) / close per bar.
func maSpread(f *core.Frame) core.Series[float64] {
	out := core.NaNSeries(f.Len())
	for i := 0; i < f.Len(); i++ {
		if !core.Valid(f.EMAShort, i) || !core.Valid(f.EMAMid, i) || !core.Valid(f.EMALong, i) {
			continue
		}
		out[i] = (math.Abs(f.EMAShort[i]-f.EMAMid[i]) + math.Abs(f.EMAMid[i]-f.EMALong[i])) / f.Close[i]
	}
	return out
}
