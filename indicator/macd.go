package indicator

import (
	"math"

	"github.com/quantfoundry/stagetrader/core"
)

// Triplet is the (fast, slow, signal) period set of one MACD
type Triplet struct {
	Fast   int
	Slow   int
	Smooth int
}

// DefaultTriplets are the three period sets of the triple-MACD, ordered
// upper (fastest), middle, lower (slowest).
var DefaultTriplets = [3]Triplet{
	{Fast: 5, Slow: 20, Smooth: 9},
	{Fast: 5, Slow: 40, Smooth: 9},
	{Fast: 20, Slow: 40, Smooth: 9},
}

// MACDResult holds the three columns of one MACD triplet
type MACDResult struct {
	MACD      core.Series[float64]
	Signal    core.Series[float64]
	Histogram core.Series[float64]
}

// MACD computes MACD = EMA(fast) - EMA(slow), Signal = EMA(MACD, smooth) and
// Histogram = MACD - Signal. The MACD line is valid from index slow-1, the
// signal and histogram from index slow+smooth-2.
func MACD(values []float64, t Triplet) MACDResult {
	fast := EMA(values, t.Fast)
	slow := EMA(values, t.Slow)

	macd := core.NaNSeries(len(values))
	for i := range values {
		if core.Valid(fast, i) && core.Valid(slow, i) {
			macd[i] = fast[i] - slow[i]
		}
	}

	signal := emaFrom(macd, t.Slow-1, t.Smooth)

	hist := core.NaNSeries(len(values))
	for i := range values {
		if core.Valid(macd, i) && core.Valid(signal, i) {
			hist[i] = macd[i] - signal[i]
		}
	}

	return MACDResult{MACD: macd, Signal: signal, Histogram: hist}
}

// Directions classifies the per-bar tendency of a MACD line as up, down or
// neutral. The rule is the sign of the first difference with a hysteresis
// dead band proportional to the price scale: within the band the previous
// direction is kept. Warmup bars are neutral.
//
// The band keeps the label stable through micro oscillations without making
// the classifier depend on anything but the two latest bars and the prior
// label, so it stays deterministic and replayable.
func Directions(line, price core.Series[float64], bandRatio float64) []core.Direction {
	out := make([]core.Direction, len(line))
	prev := core.DirectionNeutral
	for i := range line {
		if i == 0 || !core.Valid(line, i) || !core.Valid(line, i-1) {
			out[i] = core.DirectionNeutral
			continue
		}

		band := bandRatio * math.Abs(price[i])
		diff := line[i] - line[i-1]
		switch {
		case diff > band:
			prev = core.DirectionUp
		case diff < -band:
			prev = core.DirectionDown
		}
		out[i] = prev
	}
	return out
}

// DefaultDirectionBand is the hysteresis band ratio applied to the price scale
const DefaultDirectionBand = 1e-4
