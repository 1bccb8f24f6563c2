package indicator

import (
	"math"
	"sort"

	"github.com/quantfoundry/stagetrader/core"
)

// PercentileRank returns the percentile (0..100) of x within values,
// ignoring NaN cells. Returns NaN when there is nothing to rank against.
func PercentileRank(values []float64, x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	var n, below int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		n++
		if v <= x {
			below++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return float64(below) / float64(n) * 100
}

// ExpandingPercentile computes, for every bar, the percentile rank of the
// current value within the series history up to and including that bar.
// Using the expanding window keeps the column free of lookahead, so the
// simulation can read it directly.
func ExpandingPercentile(s core.Series[float64]) core.Series[float64] {
	out := core.NaNSeries(len(s))
	seen := make([]float64, 0, len(s))
	for i, v := range s {
		if math.IsNaN(v) {
			continue
		}
		pos := sort.SearchFloat64s(seen, v)
		// insert keeping seen sorted
		seen = append(seen, 0)
		copy(seen[pos+1:], seen[pos:])
		seen[pos] = v

		// rank counts values <= v, i.e. everything up to the last equal cell
		upper := sort.Search(len(seen), func(j int) bool { return seen[j] > v })
		out[i] = float64(upper) / float64(len(seen)) * 100
	}
	return out
}
