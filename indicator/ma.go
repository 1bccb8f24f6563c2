// Package indicator implements the moving-average, MACD, ATR and pattern
// detectors that feed the stage classifier and the signal pipeline.
//
// Every indicator declares its warmup window through the NaN prefix of the
// returned series: values before the warmup completes are NaN, values after it
// are always computed. Callers use core.Valid to test a cell.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/quantfoundry/stagetrader/core"
)

// SMA computes the rolling arithmetic mean over the given period.
// The first period-1 cells are NaN.
func SMA(values []float64, period int) core.Series[float64] {
	out := core.NaNSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out
}

// EMA computes the exponential moving average with an SMA seed over the first
// period bars and the recurrence
//
//	EMA_t = EMA_{t-1}*(n-1)/(n+1) + price_t*2/(n+1)
//
// The first period-1 cells are NaN.
func EMA(values []float64, period int) core.Series[float64] {
	return emaFrom(values, 0, period)
}

// emaFrom runs the EMA recurrence over values[offset:], mapping the result
// back to the full index space. Cells before offset+period-1 are NaN.
// Used to smooth series that carry their own warmup prefix, such as a MACD
// line feeding its signal line.
func emaFrom(values []float64, offset, period int) core.Series[float64] {
	out := core.NaNSeries(len(values))
	if period <= 0 || offset < 0 || len(values)-offset < period {
		return out
	}

	seed := 0.0
	for i := offset; i < offset+period; i++ {
		seed += values[i]
	}
	seed /= float64(period)

	last := offset + period - 1
	out[last] = seed

	k := 2.0 / float64(period+1)
	for i := last + 1; i < len(values); i++ {
		out[i] = out[i-1]*(1-k) + values[i]*k
	}
	return out
}

// TrueRange computes the per-bar true range
//
//	max(H-L, |H-C_{t-1}|, |L-C_{t-1}|)
//
// The first bar has no prior close and uses H-L.
func TrueRange(high, low, closes []float64) core.Series[float64] {
	out := make(core.Series[float64], len(closes))
	for i := range closes {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the average true range as the EMA of the true range, using the
// same SMA-seeded recurrence as EMA.
func ATR(high, low, closes []float64, period int) core.Series[float64] {
	return EMA(TrueRange(high, low, closes), period)
}
