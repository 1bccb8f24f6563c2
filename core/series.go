package core

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Series is a time series of ordered values.
// It provides methods for analyzing time series data.
type Series[T constraints.Ordered] []T

// Values returns the underlying slice of values
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value at a specified position from the end.
// Position 0 is the last value, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// Crossover detects when this series crosses above the reference series.
// Returns true when the current value is higher, but the previous value was not.
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder detects when this series crosses below the reference series.
// Returns true when the current value is lower/equal, but the previous value was higher.
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.Last(0) <= ref.Last(0) && s.Last(1) > ref.Last(1)
}

// Valid reports whether the float series holds a computed value at index i.
// Indicator columns use NaN inside their declared warmup window.
func Valid(s Series[float64], i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// NaNSeries returns a float series of the given size filled with NaN.
// Indicator constructors use it to pre-mark their warmup window.
func NaNSeries(size int) Series[float64] {
	s := make(Series[float64], size)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
