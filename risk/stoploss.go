package risk

import (
	"math"

	"github.com/quantfoundry/stagetrader/core"
)

// VolatilityStop computes the ATR-multiple stop, floored at zero:
// entry - k*ATR for long, entry + k*ATR for short.
func VolatilityStop(entry, atr, multiplier float64, side core.Side) float64 {
	if side == core.SideShort {
		return entry + multiplier*atr
	}
	return math.Max(0, entry-multiplier*atr)
}

// TrendStop returns the long-horizon EMA as a stop candidate. The candidate
// is invalid when it sits on the wrong side of the entry: above entry for a
// long position, below entry for a short.
func TrendStop(maValue, entry float64, side core.Side) (float64, bool) {
	if math.IsNaN(maValue) {
		return 0, false
	}
	if side == core.SideLong {
		return maValue, maValue <= entry
	}
	return maValue, maValue >= entry
}

// SelectStop picks the stop nearer to the current price: the higher stop for
// long, the lower for short. Ties break to volatility. An invalid trend
// candidate leaves the volatility stop alone.
func SelectStop(entry, atr, multiplier, trendMA float64, side core.Side) (float64, core.StopKind) {
	vol := VolatilityStop(entry, atr, multiplier, side)

	trend, valid := TrendStop(trendMA, entry, side)
	if !valid {
		return vol, core.StopVolatility
	}

	if side == core.SideLong {
		if trend > vol {
			return trend, core.StopTrend
		}
		return vol, core.StopVolatility
	}
	if trend < vol {
		return trend, core.StopTrend
	}
	return vol, core.StopVolatility
}

// UpdateTrailingStop recomputes a trailing stop from the extreme price since
// entry. The stop only ever moves in the position's favor:
//
//	long:  max(current, highest_since_entry - k*ATR)
//	short: min(current, lowest_since_entry + k*ATR)
//
// The monotone update also keeps the stop from slipping back below the entry
// once break-even is locked in.
func UpdateTrailingStop(current, extreme, atr, multiplier float64, side core.Side) float64 {
	if math.IsNaN(atr) {
		return current
	}
	if side == core.SideShort {
		return math.Min(current, extreme+multiplier*atr)
	}
	return math.Max(current, extreme-multiplier*atr)
}

// CheckStopTriggered reports whether the stop fires at the current price.
// The comparison is inclusive: touching the stop triggers it.
func CheckStopTriggered(price, stopPrice float64, side core.Side) bool {
	if stopPrice <= 0 {
		return false
	}
	if side == core.SideShort {
		return price >= stopPrice
	}
	return price <= stopPrice
}
