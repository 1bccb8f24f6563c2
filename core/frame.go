package core

import (
	"sort"
	"time"
)

// MACDColumns holds the computed columns of one MACD triplet
type MACDColumns struct {
	Fast   int // fast EMA period
	Slow   int // slow EMA period
	Smooth int // signal EMA period

	MACD      Series[float64]
	Signal    Series[float64]
	Histogram Series[float64]
	Direction []Direction
}

// Frame is the per-ticker indicator frame: the bar series plus every derived
// column the simulation reads. It is built once at load time and treated as
// read-only during the simulation.
type Frame struct {
	Ticker string

	Date   []time.Time
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Close  Series[float64]
	Volume Series[float64]

	EMAShort Series[float64]
	EMAMid   Series[float64]
	EMALong  Series[float64]
	ATR      Series[float64]

	MACDs [3]MACDColumns

	// Stage is 0 until the classifier warmup completes, 1..6 afterwards.
	Stage []int
	// Transition is 10*prev + curr on a stage change, 0 otherwise.
	Transition []int

	// Metadata holds auxiliary indicator columns keyed by name
	Metadata map[string]Series[float64]
}

// NewFrame builds an empty frame from a normalized bar series
func NewFrame(ticker string, bars []Bar) *Frame {
	f := &Frame{
		Ticker:   ticker,
		Date:     make([]time.Time, len(bars)),
		Open:     make(Series[float64], len(bars)),
		High:     make(Series[float64], len(bars)),
		Low:      make(Series[float64], len(bars)),
		Close:    make(Series[float64], len(bars)),
		Volume:   make(Series[float64], len(bars)),
		Metadata: make(map[string]Series[float64]),
	}
	for i, bar := range bars {
		f.Date[i] = bar.Date
		f.Open[i] = bar.Open
		f.High[i] = bar.High
		f.Low[i] = bar.Low
		f.Close[i] = bar.Close
		f.Volume[i] = bar.Volume
	}
	return f
}

// Len returns the number of bars in the frame
func (f *Frame) Len() int {
	return len(f.Date)
}

// IndexOf returns the bar index of the given date, or -1 when the ticker did
// not trade that day. Lookup is a binary search over the ordered date index.
func (f *Frame) IndexOf(date time.Time) int {
	i := sort.Search(len(f.Date), func(i int) bool {
		return !f.Date[i].Before(date)
	})
	if i < len(f.Date) && f.Date[i].Equal(date) {
		return i
	}
	return -1
}

// LastIndexBefore returns the index of the newest bar at or before the given
// date, or -1 when the frame starts after it.
func (f *Frame) LastIndexBefore(date time.Time) int {
	i := sort.Search(len(f.Date), func(i int) bool {
		return f.Date[i].After(date)
	})
	return i - 1
}

// CloseAt returns the close of the given date when the ticker traded that day
func (f *Frame) CloseAt(date time.Time) (float64, bool) {
	i := f.IndexOf(date)
	if i < 0 {
		return 0, false
	}
	return f.Close[i], true
}

// Direction returns the direction triple of the three MACD lines at index i
func (f *Frame) Directions(i int) [3]Direction {
	var out [3]Direction
	for s, col := range f.MACDs {
		if i >= 0 && i < len(col.Direction) {
			out[s] = col.Direction[i]
		}
	}
	return out
}
