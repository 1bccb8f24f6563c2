package stage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/indicator"
)

func TestArrangement_AllSixPatterns(t *testing.T) {
	require.Equal(t, PerfectBull, Arrangement(3, 2, 1))
	require.Equal(t, EarlyDecline, Arrangement(2, 3, 1))
	require.Equal(t, Decline, Arrangement(1, 3, 2))
	require.Equal(t, PerfectBear, Arrangement(1, 2, 3))
	require.Equal(t, EarlyRecovery, Arrangement(2, 1, 3))
	require.Equal(t, Recovery, Arrangement(3, 1, 2))
}

func TestArrangement_TiesResolveInLabelOrder(t *testing.T) {
	// Equal values satisfy the first matching pattern, so the mapping is total.
	require.Equal(t, PerfectBull, Arrangement(2, 2, 2))
	require.Equal(t, PerfectBull, Arrangement(3, 3, 1))
}

func TestArrangement_NaNIsUnknown(t *testing.T) {
	require.Equal(t, Unknown, Arrangement(math.NaN(), 2, 1))
	require.Equal(t, Unknown, Arrangement(3, math.NaN(), 1))
	require.Equal(t, Unknown, Arrangement(3, 2, math.NaN()))
}

func TestZeroCross(t *testing.T) {
	line := core.Series[float64]{-1, 1, 1, -2, 0}

	require.Equal(t, 0, ZeroCross(line, 0))
	require.Equal(t, +1, ZeroCross(line, 1))
	require.Equal(t, 0, ZeroCross(line, 2))
	require.Equal(t, -1, ZeroCross(line, 3))
	require.Equal(t, +1, ZeroCross(line, 4)) // -2 to 0 counts as crossing up
}

func TestZeroCross_WarmupYieldsNone(t *testing.T) {
	line := core.NaNSeries(3)
	line[2] = 1

	require.Equal(t, 0, ZeroCross(line, 2))
}

// twoBarFrame builds a frame with fixed EMAs and per-slot MACD lines given as
// [prev, curr] pairs.
func twoBarFrame(short, mid, long float64, macds [3][2]float64) *core.Frame {
	f := &core.Frame{
		Date:     []time.Time{day(1), day(2)},
		Close:    core.Series[float64]{100, 100},
		EMAShort: core.Series[float64]{short, short},
		EMAMid:   core.Series[float64]{mid, mid},
		EMALong:  core.Series[float64]{long, long},
	}
	for slot, pair := range macds {
		f.MACDs[slot] = core.MACDColumns{MACD: core.Series[float64]{pair[0], pair[1]}}
	}
	return f
}

func day(n int) time.Time {
	return time.Date(2023, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestClassify_Idempotent(t *testing.T) {
	bars := make([]core.Bar, 80)
	for i := range bars {
		base := 100 + 10*math.Sin(float64(i)/7)
		bars[i] = core.Bar{
			Ticker: "005930", Date: day(i + 1),
			Open: base, High: base * 1.01, Low: base * 0.99, Close: base,
			Volume: 1000,
		}
	}
	f := core.NewFrame("005930", bars)
	indicator.ComputeAll(f, indicator.DefaultConfig())

	Classify(f)
	stages := append([]int(nil), f.Stage...)
	transitions := append([]int(nil), f.Transition...)

	// Classifying an already-classified frame reads only indicator columns,
	// so a second pass reproduces the labels exactly.
	Classify(f)
	require.Equal(t, stages, f.Stage)
	require.Equal(t, transitions, f.Transition)
}

func TestAt_ZeroCrossOverridesArrangement(t *testing.T) {
	// Arrangement says perfect bull; the lower MACD crossing down overrides to
	// perfect bear.
	f := twoBarFrame(3, 2, 1, [3][2]float64{
		{1, 1},   // upper: no cross
		{1, 1},   // middle: no cross
		{1, -1},  // lower: crossing down
	})

	require.Equal(t, PerfectBear, At(f, 1))
}

func TestAt_LastMatchingOverrideWins(t *testing.T) {
	// Upper crosses down (early decline) and middle crosses up (recovery);
	// checked upper then middle, the middle override stands.
	f := twoBarFrame(3, 2, 1, [3][2]float64{
		{1, -1}, // upper: crossing down
		{-1, 1}, // middle: crossing up
		{1, 1},  // lower: no cross
	})

	require.Equal(t, Recovery, At(f, 1))
}

func TestAt_WarmupIsUnknown(t *testing.T) {
	f := twoBarFrame(3, 2, 1, [3][2]float64{})
	f.EMALong = core.NaNSeries(2)

	require.Equal(t, Unknown, At(f, 1))
}

func TestClassify_TransitionCodes(t *testing.T) {
	// Three bars: perfect bull, then the mid EMA overtakes the short
	// (early decline). Transition code on the change bar is 10*1+2.
	f := &core.Frame{
		Date:     []time.Time{day(1), day(2), day(3)},
		Close:    core.Series[float64]{100, 100, 100},
		EMAShort: core.Series[float64]{3, 3, 2},
		EMAMid:   core.Series[float64]{2, 2, 3},
		EMALong:  core.Series[float64]{1, 1, 1},
	}
	for slot := range f.MACDs {
		f.MACDs[slot] = core.MACDColumns{MACD: core.Series[float64]{1, 1, 1}}
	}

	Classify(f)

	require.Equal(t, []int{PerfectBull, PerfectBull, EarlyDecline}, f.Stage)
	require.Equal(t, []int{0, 0, 12}, f.Transition)
}

func TestClassify_NoTransitionFromWarmup(t *testing.T) {
	f := &core.Frame{
		Date:     []time.Time{day(1), day(2)},
		Close:    core.Series[float64]{100, 100},
		EMAShort: core.Series[float64]{math.NaN(), 3},
		EMAMid:   core.Series[float64]{math.NaN(), 2},
		EMALong:  core.Series[float64]{math.NaN(), 1},
	}
	for slot := range f.MACDs {
		f.MACDs[slot] = core.MACDColumns{MACD: core.Series[float64]{1, 1}}
	}

	Classify(f)

	require.Equal(t, []int{Unknown, PerfectBull}, f.Stage)
	require.Equal(t, []int{0, 0}, f.Transition)
}
