package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeries_LastAccessors(t *testing.T) {
	s := Series[float64]{1, 2, 3, 4}

	require.Equal(t, 4.0, s.Last(0))
	require.Equal(t, 3.0, s.Last(1))
	require.Equal(t, 4, s.Length())
}

func TestSeries_CrossDetection(t *testing.T) {
	rising := Series[float64]{1, 3}
	falling := Series[float64]{3, 1}
	ref := Series[float64]{2, 2}

	require.True(t, rising.Crossover(ref))
	require.False(t, falling.Crossover(ref))
	require.True(t, falling.Crossunder(ref))
	require.False(t, rising.Crossunder(ref))
}

func TestValid(t *testing.T) {
	s := NaNSeries(3)
	s[1] = 5

	require.False(t, Valid(s, 0))
	require.True(t, Valid(s, 1))
	require.False(t, Valid(s, -1))
	require.False(t, Valid(s, 3))
}

func TestNaNSeries(t *testing.T) {
	s := NaNSeries(4)
	require.Len(t, s, 4)
	for _, v := range s {
		require.True(t, math.IsNaN(v))
	}
}
