package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar represents a single daily OHLCV record for a ticker
type Bar struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks a single bar for the invariants the engine relies on:
// positive prices, non-negative volume, and no NaNs.
func (b Bar) Validate() error {
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN on %s", ErrInvalidInput, name, b.Date.Format(DateLayout))
		}
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %f on %s",
				ErrInvalidInput, name, v, b.Date.Format(DateLayout))
		}
	}
	if math.IsNaN(b.Volume) || b.Volume < 0 {
		return fmt.Errorf("%w: volume must be non-negative, got %f on %s",
			ErrInvalidInput, b.Volume, b.Date.Format(DateLayout))
	}
	return nil
}

// DateLayout is the calendar-date format used across the engine
const DateLayout = "2006-01-02"

// NormalizeBars sorts bars by date, drops duplicated dates keeping the first
// occurrence, and validates every remaining bar.
func NormalizeBars(bars []Bar) ([]Bar, error) {
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	var prev time.Time
	for i, bar := range sorted {
		if err := bar.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !bar.Date.After(prev) {
			continue
		}
		out = append(out, bar)
		prev = bar.Date
	}
	return out, nil
}
