package signal

import (
	"math"

	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/indicator"
	"github.com/quantfoundry/stagetrader/stage"
)

// Strength is the 0-100 signal-strength score with its three sub-scores
type Strength struct {
	Alignment float64 // 0-30, MACD direction agreement
	Trend     float64 // 0-40, arrangement plus MA spread percentile
	Momentum  float64 // 0-30, long-EMA slope plus ATR appropriateness
	Total     float64 // clipped sum
}

// Scorer computes signal strength from a frame bar
type Scorer struct {
	Slope indicator.SlopeThresholds
}

// NewScorer returns a scorer with the given slope thresholds
func NewScorer(slope indicator.SlopeThresholds) *Scorer {
	return &Scorer{Slope: slope}
}

// Score computes the strength of a signal at frame index i
func (sc *Scorer) Score(f *core.Frame, i int) Strength {
	s := Strength{
		Alignment: alignmentScore(f.Directions(i)),
		Trend:     sc.trendScore(f, i),
		Momentum:  sc.momentumScore(f, i),
	}
	s.Total = clip(s.Alignment+s.Trend+s.Momentum, 0, 100)
	return s
}

// alignmentScore scores MACD direction agreement: 30 when all three agree,
// 20 when exactly two agree, 10 when exactly one is directional, else 0.
func alignmentScore(dirs [3]core.Direction) float64 {
	var ups, downs int
	for _, d := range dirs {
		switch d {
		case core.DirectionUp:
			ups++
		case core.DirectionDown:
			downs++
		}
	}

	switch {
	case ups == 3 || downs == 3:
		return 30
	case ups == 2 || downs == 2:
		return 20
	case ups+downs == 1:
		return 10
	default:
		return 0
	}
}

// trendScore combines the arrangement sub-score with the MA spread percentile
func (sc *Scorer) trendScore(f *core.Frame, i int) float64 {
	var arrangement float64
	if f.Stage != nil && i < len(f.Stage) {
		switch f.Stage[i] {
		case stage.Recovery, stage.Decline:
			arrangement = 20
		case stage.EarlyRecovery, stage.EarlyDecline:
			arrangement = 15
		case stage.PerfectBull, stage.PerfectBear:
			arrangement = 5
		}
	}

	spread := 5.0
	if pct, ok := metadataAt(f, indicator.ColSpreadPercentile, i); ok {
		switch {
		case pct >= 80:
			spread = 20
		case pct >= 60:
			spread = 15
		case pct >= 40:
			spread = 10
		}
	}

	return clip(arrangement+spread, 0, 40)
}

// momentumScore combines the long-EMA slope class with ATR appropriateness
func (sc *Scorer) momentumScore(f *core.Frame, i int) float64 {
	var slopeScore float64
	if sl, ok := metadataAt(f, indicator.ColSlopeLong, i); ok {
		switch indicator.ClassifySlope(sl, f.Close[i], sc.Slope) {
		case indicator.SlopeStrongUp, indicator.SlopeStrongDown:
			slopeScore = 20
		case indicator.SlopeUp, indicator.SlopeDown:
			slopeScore = 15
		case indicator.SlopeWeakUp, indicator.SlopeWeakDown:
			slopeScore = 10
		}
	}

	atrScore := 3.0
	if pct, ok := metadataAt(f, indicator.ColATRPercentile, i); ok {
		switch {
		case pct >= 40 && pct <= 70:
			atrScore = 10
		case (pct >= 20 && pct < 40) || (pct > 70 && pct <= 85):
			atrScore = 7
		}
	}

	return clip(slopeScore+atrScore, 0, 30)
}

func metadataAt(f *core.Frame, col string, i int) (float64, bool) {
	s, ok := f.Metadata[col]
	if !ok || i < 0 || i >= len(s) || math.IsNaN(s[i]) {
		return 0, false
	}
	return s[i], true
}

func clip(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
