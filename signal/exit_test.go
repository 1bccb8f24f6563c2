package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
)

// flat, deadCross, macdPeak and histPeak are three-bar column shapes used to
// compose exit scenarios; the evaluation index is always 2.
var (
	flat      = colShape{macd: [3]float64{1, 1, 1}, signal: [3]float64{0, 0, 0}, hist: [3]float64{1, 1, 1}}
	deadCross = colShape{macd: [3]float64{2, 2, 0}, signal: [3]float64{0, 1, 1}, hist: [3]float64{2, 1, -1}}
	macdPeak  = colShape{macd: [3]float64{1, 3, 2}, signal: [3]float64{0, 0, 0}, hist: [3]float64{1, 3, 3}}
	histPeak  = colShape{macd: [3]float64{1, 2, 3}, signal: [3]float64{0, 0, 0}, hist: [3]float64{1, 3, 2}}
)

type colShape struct {
	macd   [3]float64
	signal [3]float64
	hist   [3]float64
}

func exitFrame(upper, middle, lower colShape) *core.Frame {
	f := &core.Frame{Close: core.Series[float64]{100, 100, 100}}
	for slot, shape := range [3]colShape{upper, middle, lower} {
		shape := shape // per-iteration copy: the slices below must not alias the loop variable
		f.MACDs[slot] = core.MACDColumns{
			MACD:      shape.macd[:],
			Signal:    shape.signal[:],
			Histogram: shape.hist[:],
		}
	}
	return f
}

func TestEvaluateExit_SequentialLevels(t *testing.T) {
	// Level 3 binds to the lower MACD.
	exit := EvaluateExit(exitFrame(flat, flat, deadCross), 2, core.SideLong, MergeSequential)
	require.Equal(t, 3, exit.Level)
	require.Equal(t, 1.0, exit.Ratio)
	require.Equal(t, core.MACDLower, exit.Source)
	require.Equal(t, "exit_signal(sequential:lower:signal_cross)", exit.Reason)

	// Level 2 binds to the middle MACD.
	exit = EvaluateExit(exitFrame(flat, macdPeak, flat), 2, core.SideLong, MergeSequential)
	require.Equal(t, 2, exit.Level)
	require.Equal(t, 0.5, exit.Ratio)
	require.Equal(t, core.MACDMiddle, exit.Source)

	// Level 1 binds to the upper MACD and closes nothing.
	exit = EvaluateExit(exitFrame(histPeak, flat, flat), 2, core.SideLong, MergeSequential)
	require.Equal(t, 1, exit.Level)
	require.Equal(t, 0.0, exit.Ratio)
	require.Equal(t, core.MACDUpper, exit.Source)
}

func TestEvaluateExit_SequentialIgnoresOffSlotConditions(t *testing.T) {
	// A dead cross on the upper MACD is not the level-3 slot, and the upper
	// slot only feeds level 1: nothing fires.
	exit := EvaluateExit(exitFrame(deadCross, flat, flat), 2, core.SideLong, MergeSequential)
	require.Equal(t, 0, exit.Level)
}

func TestEvaluateExit_HigherLevelOverrides(t *testing.T) {
	// Histogram peakout on upper and dead cross on lower: level 3 wins.
	exit := EvaluateExit(exitFrame(histPeak, flat, deadCross), 2, core.SideLong, MergeSequential)
	require.Equal(t, 3, exit.Level)
	require.Equal(t, 1.0, exit.Ratio)
}

func TestEvaluateExit_FastestAndSlowest(t *testing.T) {
	f := exitFrame(deadCross, flat, flat)

	exit := EvaluateExit(f, 2, core.SideLong, MergeFastest)
	require.Equal(t, 3, exit.Level)
	require.Equal(t, core.MACDUpper, exit.Source)

	// Slowest reads only the lower MACD, which is flat.
	exit = EvaluateExit(f, 2, core.SideLong, MergeSlowest)
	require.Equal(t, 0, exit.Level)
}

func TestEvaluateExit_MajorityNeedsTwoSlots(t *testing.T) {
	one := exitFrame(deadCross, flat, flat)
	require.Equal(t, 0, EvaluateExit(one, 2, core.SideLong, MergeMajority).Level)

	two := exitFrame(deadCross, deadCross, flat)
	exit := EvaluateExit(two, 2, core.SideLong, MergeMajority)
	require.Equal(t, 3, exit.Level)
	require.Equal(t, core.MACDUpper, exit.Source) // first agreeing slot reported
}

func TestEvaluateExit_WarmupBarsNeverCross(t *testing.T) {
	nan := math.NaN()
	warming := colShape{
		macd:   [3]float64{nan, nan, 0},
		signal: [3]float64{nan, nan, 1},
		hist:   [3]float64{nan, nan, -1},
	}

	exit := EvaluateExit(exitFrame(flat, flat, warming), 2, core.SideLong, MergeSequential)
	require.Equal(t, 0, exit.Level)
}

func TestEvaluateExit_NoSignalOnFlatColumns(t *testing.T) {
	exit := EvaluateExit(exitFrame(flat, flat, flat), 2, core.SideLong, MergeSequential)
	require.Equal(t, Exit{}, exit)
}

func TestParseMergeStrategy(t *testing.T) {
	for _, name := range []string{"sequential", "fastest", "slowest", "majority", ""} {
		s, err := ParseMergeStrategy(name)
		require.NoError(t, err)
		if name != "" {
			require.Equal(t, name, s.String())
		}
	}

	_, err := ParseMergeStrategy("bogus")
	require.Error(t, err)
}
