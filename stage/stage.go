// Package stage implements the six-way market regime classifier built from
// the moving-average arrangement and MACD zero-line cross overrides.
package stage

import (
	"github.com/quantfoundry/stagetrader/core"
)

// Stage labels
//
//	1 perfect bull      (short > mid > long)
//	2 early decline     (mid > short > long)
//	3 decline           (mid > long > short)
//	4 perfect bear      (long > mid > short)
//	5 early recovery    (long > short > mid)
//	6 recovery          (short > long > mid)
const (
	Unknown       = 0
	PerfectBull   = 1
	EarlyDecline  = 2
	Decline       = 3
	PerfectBear   = 4
	EarlyRecovery = 5
	Recovery      = 6
)

// Arrangement maps an (EMA short, mid, long) triple to its 1-6 pattern.
// Equal values satisfy the first matching pattern in label order, which keeps
// the mapping total and deterministic. Returns Unknown during warmup.
func Arrangement(short, mid, long float64) int {
	switch {
	case short != short || mid != mid || long != long: // NaN check
		return Unknown
	case short >= mid && mid >= long:
		return PerfectBull
	case mid >= short && short >= long:
		return EarlyDecline
	case mid >= long && long >= short:
		return Decline
	case long >= mid && mid >= short:
		return PerfectBear
	case long >= short && short >= mid:
		return EarlyRecovery
	default:
		return Recovery
	}
}

// ZeroCross reports the zero-line cross of a MACD line at index i:
// +1 crossing up from negative to non-negative, -1 crossing down, 0 otherwise.
func ZeroCross(line core.Series[float64], i int) int {
	if i < 1 || !core.Valid(line, i) || !core.Valid(line, i-1) {
		return 0
	}
	switch {
	case line[i-1] < 0 && line[i] >= 0:
		return +1
	case line[i-1] >= 0 && line[i] < 0:
		return -1
	default:
		return 0
	}
}

// crossOverride maps a (slot, cross sign) event to its stage override
func crossOverride(slot core.MACDSlot, cross int) (int, bool) {
	switch {
	case slot == core.MACDLower && cross == +1:
		return PerfectBull, true
	case slot == core.MACDUpper && cross == -1:
		return EarlyDecline, true
	case slot == core.MACDMiddle && cross == -1:
		return Decline, true
	case slot == core.MACDLower && cross == -1:
		return PerfectBear, true
	case slot == core.MACDUpper && cross == +1:
		return EarlyRecovery, true
	case slot == core.MACDMiddle && cross == +1:
		return Recovery, true
	default:
		return Unknown, false
	}
}

// At computes the stage label for a single bar: the arrangement-derived label
// overridden by MACD zero-cross events checked upper, middle, lower — the last
// matching override wins.
func At(f *core.Frame, i int) int {
	if !core.Valid(f.EMAShort, i) || !core.Valid(f.EMAMid, i) || !core.Valid(f.EMALong, i) {
		return Unknown
	}

	label := Arrangement(f.EMAShort[i], f.EMAMid[i], f.EMALong[i])

	for _, slot := range core.MACDSlots {
		if cross := ZeroCross(f.MACDs[slot].MACD, i); cross != 0 {
			if override, ok := crossOverride(slot, cross); ok {
				label = override
			}
		}
	}
	return label
}

// Classify fills the Stage and Transition columns of the frame.
// The transition code is 10*prev + curr on the bar where the label changes and
// 0 elsewhere; bars before warmup stay Unknown and produce no transition.
func Classify(f *core.Frame) {
	f.Stage = make([]int, f.Len())
	f.Transition = make([]int, f.Len())

	prev := Unknown
	for i := 0; i < f.Len(); i++ {
		cur := At(f, i)
		f.Stage[i] = cur

		if cur != Unknown && prev != Unknown && cur != prev {
			f.Transition[i] = 10*prev + cur
		}
		if cur != Unknown {
			prev = cur
		}
	}
}
