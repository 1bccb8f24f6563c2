package indicator

import "github.com/quantfoundry/stagetrader/core"

// DetectPeakout flags bars where the series has just turned away from a local
// extremum. For direction down, bar t is flagged when the prior bar is a local
// maximum and the current bar is strictly below it:
//
//	s[t-1] > s[t] && s[t-1] >= s[t-2]
//
// The >= on the left side makes a plateau followed by a drop count on the
// first dropping bar. Direction up is symmetric at a local minimum. Any other
// direction yields all false.
func DetectPeakout(s core.Series[float64], direction core.Direction) []bool {
	out := make([]bool, len(s))
	for i := range s {
		out[i] = PeakoutAt(s, i, direction)
	}
	return out
}

// PeakoutAt evaluates the peakout condition at a single index
func PeakoutAt(s core.Series[float64], i int, direction core.Direction) bool {
	if i < 2 || !core.Valid(s, i) || !core.Valid(s, i-1) || !core.Valid(s, i-2) {
		return false
	}
	switch direction {
	case core.DirectionDown:
		return s[i-1] > s[i] && s[i-1] >= s[i-2]
	case core.DirectionUp:
		return s[i-1] < s[i] && s[i-1] <= s[i-2]
	default:
		return false
	}
}
