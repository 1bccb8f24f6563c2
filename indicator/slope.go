package indicator

import (
	"math"

	"github.com/quantfoundry/stagetrader/core"
)

// SlopeClass is the categorical label of a slope magnitude
type SlopeClass int8

const (
	SlopeFlat SlopeClass = iota
	SlopeWeakUp
	SlopeWeakDown
	SlopeUp
	SlopeDown
	SlopeStrongUp
	SlopeStrongDown
)

// String returns the textual label of the slope class
func (c SlopeClass) String() string {
	switch c {
	case SlopeWeakUp:
		return "weak_up"
	case SlopeWeakDown:
		return "weak_down"
	case SlopeUp:
		return "up"
	case SlopeDown:
		return "down"
	case SlopeStrongUp:
		return "strong_up"
	case SlopeStrongDown:
		return "strong_down"
	default:
		return "flat"
	}
}

// IsUp reports whether the class points upward
func (c SlopeClass) IsUp() bool {
	return c == SlopeWeakUp || c == SlopeUp || c == SlopeStrongUp
}

// SlopeThresholds are the magnitude boundaries of the categorical slope,
// expressed on the slope normalized by the price scale (|slope| / price).
type SlopeThresholds struct {
	Flat   float64 // below: flat
	Weak   float64 // below: weak_up / weak_down
	Strong float64 // below: up / down; at or above: strong_up / strong_down
}

// DefaultSlopeThresholds are per-bar normalized slope boundaries.
// 0.05%/bar reads as flat, 0.2%/bar as weak, 0.5%/bar and above as strong.
var DefaultSlopeThresholds = SlopeThresholds{
	Flat:   0.0005,
	Weak:   0.002,
	Strong: 0.005,
}

// Slope computes (s[t] - s[t-period]) / period per bar.
// Cells without a full lookback are NaN.
func Slope(s core.Series[float64], period int) core.Series[float64] {
	out := core.NaNSeries(len(s))
	if period <= 0 {
		return out
	}
	for i := period; i < len(s); i++ {
		if core.Valid(s, i) && core.Valid(s, i-period) {
			out[i] = (s[i] - s[i-period]) / float64(period)
		}
	}
	return out
}

// ClassifySlope maps a slope value to its categorical label, scaling the
// magnitude by the price at the same bar.
func ClassifySlope(slope, price float64, th SlopeThresholds) SlopeClass {
	if math.IsNaN(slope) || price <= 0 {
		return SlopeFlat
	}

	norm := math.Abs(slope) / price
	up := slope > 0

	switch {
	case norm < th.Flat:
		return SlopeFlat
	case norm < th.Weak:
		if up {
			return SlopeWeakUp
		}
		return SlopeWeakDown
	case norm < th.Strong:
		if up {
			return SlopeUp
		}
		return SlopeDown
	default:
		if up {
			return SlopeStrongUp
		}
		return SlopeStrongDown
	}
}
