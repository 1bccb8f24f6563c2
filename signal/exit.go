package signal

import (
	"fmt"

	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/indicator"
)

// MergeStrategy selects how the three per-MACD exit chains combine
type MergeStrategy int8

const (
	MergeSequential MergeStrategy = iota // level 1 from upper, 2 from middle, 3 from lower
	MergeFastest                         // all levels from the upper MACD
	MergeSlowest                         // all levels from the lower MACD
	MergeMajority                        // a level fires when at least two MACDs agree
)

// String returns the textual label of the merge strategy
func (m MergeStrategy) String() string {
	switch m {
	case MergeFastest:
		return "fastest"
	case MergeSlowest:
		return "slowest"
	case MergeMajority:
		return "majority"
	default:
		return "sequential"
	}
}

// ParseMergeStrategy maps a config string to its strategy
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "", "sequential":
		return MergeSequential, nil
	case "fastest":
		return MergeFastest, nil
	case "slowest":
		return MergeSlowest, nil
	case "majority":
		return MergeMajority, nil
	default:
		return MergeSequential, fmt.Errorf("%w: unknown merge strategy %q", core.ErrInvalidInput, s)
	}
}

// Exit is the merged exit decision for a held position on one bar.
// Level 0 means hold, 1 warns (0% close), 2 halves the position, 3 closes it.
type Exit struct {
	Level  int
	Ratio  float64
	Reason string
	Source core.MACDSlot
}

// exitRatio maps an exit level to its close ratio
func exitRatio(level int) float64 {
	switch level {
	case 2:
		return 0.5
	case 3:
		return 1.0
	default:
		return 0
	}
}

// levelCondition evaluates the exit condition of one level on one MACD slot.
// For a long position the chain is histogram down-peakout, MACD-line
// down-peakout, then MACD/signal dead cross; mirrored for short.
func levelCondition(f *core.Frame, i int, side core.Side, slot core.MACDSlot, level int) bool {
	col := f.MACDs[slot]

	peakDir := core.DirectionDown
	if side == core.SideShort {
		peakDir = core.DirectionUp
	}

	switch level {
	case 1:
		return indicator.PeakoutAt(col.Histogram, i, peakDir)
	case 2:
		return indicator.PeakoutAt(col.MACD, i, peakDir)
	case 3:
		if i < 1 || !core.Valid(col.MACD, i-1) || !core.Valid(col.Signal, i-1) {
			return false
		}
		macd, signal := col.MACD[:i+1], col.Signal[:i+1]
		if side == core.SideLong {
			// dead cross
			return macd.Crossunder(signal)
		}
		// golden cross
		return macd.Crossover(signal)
	default:
		return false
	}
}

// levelName labels a level for the reason string
func levelName(level int) string {
	switch level {
	case 1:
		return "hist_peakout"
	case 2:
		return "macd_peakout"
	case 3:
		return "signal_cross"
	default:
		return "none"
	}
}

// EvaluateExit computes the merged exit decision at frame index i for a held
// position. Higher levels override lower on the same bar.
func EvaluateExit(f *core.Frame, i int, side core.Side, strategy MergeStrategy) Exit {
	var (
		level  int
		source core.MACDSlot
	)

	switch strategy {
	case MergeFastest, MergeSlowest:
		slot := core.MACDUpper
		if strategy == MergeSlowest {
			slot = core.MACDLower
		}
		for lv := 3; lv >= 1; lv-- {
			if levelCondition(f, i, side, slot, lv) {
				level, source = lv, slot
				break
			}
		}

	case MergeMajority:
		for lv := 3; lv >= 1; lv-- {
			count := 0
			first := core.MACDUpper
			found := false
			for _, slot := range core.MACDSlots {
				if levelCondition(f, i, side, slot, lv) {
					count++
					if !found {
						first, found = slot, true
					}
				}
			}
			if count >= 2 {
				level, source = lv, first
				break
			}
		}

	default: // sequential
		chain := [3]core.MACDSlot{core.MACDUpper, core.MACDMiddle, core.MACDLower}
		for lv := 3; lv >= 1; lv-- {
			if levelCondition(f, i, side, chain[lv-1], lv) {
				level, source = lv, chain[lv-1]
				break
			}
		}
	}

	if level == 0 {
		return Exit{}
	}
	return Exit{
		Level:  level,
		Ratio:  exitRatio(level),
		Reason: fmt.Sprintf("exit_signal(%s:%s:%s)", strategy, source, levelName(level)),
		Source: source,
	}
}
