package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
)

func TestMACD_WarmupBoundaries(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + float64(i)
	}

	tr := Triplet{Fast: 3, Slow: 10, Smooth: 4}
	res := MACD(values, tr)

	// MACD line is valid from slow-1, signal and histogram from slow+smooth-2.
	require.True(t, math.IsNaN(res.MACD[tr.Slow-2]))
	require.False(t, math.IsNaN(res.MACD[tr.Slow-1]))

	require.True(t, math.IsNaN(res.Signal[tr.Slow+tr.Smooth-3]))
	require.False(t, math.IsNaN(res.Signal[tr.Slow+tr.Smooth-2]))
	require.False(t, math.IsNaN(res.Histogram[tr.Slow+tr.Smooth-2]))
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 500
	}

	res := MACD(values, Triplet{Fast: 5, Slow: 20, Smooth: 9})

	for i := 30; i < len(values); i++ {
		require.InDelta(t, 0, res.MACD[i], 1e-9)
		require.InDelta(t, 0, res.Signal[i], 1e-9)
		require.InDelta(t, 0, res.Histogram[i], 1e-9)
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	values := make([]float64, 80)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/5)
	}

	res := MACD(values, Triplet{Fast: 5, Slow: 20, Smooth: 9})

	for i := range values {
		if !core.Valid(res.Histogram, i) {
			continue
		}
		require.InDelta(t, res.MACD[i]-res.Signal[i], res.Histogram[i], 1e-9)
	}
}

func TestDirections_RisingAndFalling(t *testing.T) {
	line := core.Series[float64]{0, 1, 2, 3, 2, 1, 0}
	price := core.Series[float64]{100, 100, 100, 100, 100, 100, 100}

	dirs := Directions(line, price, DefaultDirectionBand)

	require.Equal(t, core.DirectionNeutral, dirs[0])
	require.Equal(t, core.DirectionUp, dirs[1])
	require.Equal(t, core.DirectionUp, dirs[3])
	require.Equal(t, core.DirectionDown, dirs[4])
	require.Equal(t, core.DirectionDown, dirs[6])
}

func TestDirections_HysteresisKeepsPreviousLabel(t *testing.T) {
	// The second move is far inside the band (1e-4 * 100 = 0.01), so the up
	// label from the first move persists.
	line := core.Series[float64]{0, 1, 1.000001, 1.000002}
	price := core.Series[float64]{100, 100, 100, 100}

	dirs := Directions(line, price, DefaultDirectionBand)

	require.Equal(t, core.DirectionUp, dirs[1])
	require.Equal(t, core.DirectionUp, dirs[2])
	require.Equal(t, core.DirectionUp, dirs[3])
}

func TestDirections_WarmupIsNeutral(t *testing.T) {
	line := core.NaNSeries(5)
	line[3], line[4] = 1, 2
	price := core.Series[float64]{100, 100, 100, 100, 100}

	dirs := Directions(line, price, DefaultDirectionBand)

	require.Equal(t, core.DirectionNeutral, dirs[0])
	require.Equal(t, core.DirectionNeutral, dirs[3])
	require.Equal(t, core.DirectionUp, dirs[4])
}
