// Package portfolio implements positions, the cash/ledger aggregate, and
// slippage/commission execution.
package portfolio

import (
	"math"
	"time"

	"github.com/quantfoundry/stagetrader/core"
)

// Position is one open holding. EntryPrice is the volume-weighted average
// across fills; Units accumulate additively on re-entry.
type Position struct {
	Ticker    string
	Side      core.Side
	EntryDate time.Time

	EntryPrice float64
	Shares     int
	Units      int

	StopPrice float64
	StopKind  core.StopKind

	HighestSinceEntry float64
	LowestSinceEntry  float64

	SignalStrengthAtEntry float64
	StageAtEntry          int
}

// AddFill merges an additional fill into the position, recomputing the
// average entry price and accumulating units.
func (p *Position) AddFill(price float64, shares, units int) {
	total := float64(p.Shares)*p.EntryPrice + float64(shares)*price
	p.Shares += shares
	p.Units += units
	p.EntryPrice = total / float64(p.Shares)
	p.UpdateExtremes(price)
}

// Reduce removes closed shares from the position, preserving the average
// entry price and scaling units by the remaining-shares ratio (floored).
func (p *Position) Reduce(sharesClosed int) {
	if sharesClosed >= p.Shares {
		p.Shares = 0
		p.Units = 0
		return
	}
	prior := p.Shares
	p.Shares -= sharesClosed
	p.Units = int(math.Floor(float64(p.Units) * float64(p.Shares) / float64(prior)))
}

// UpdateExtremes folds a new price into the extremes since entry
func (p *Position) UpdateExtremes(price float64) {
	if price > p.HighestSinceEntry {
		p.HighestSinceEntry = price
	}
	if p.LowestSinceEntry == 0 || price < p.LowestSinceEntry {
		p.LowestSinceEntry = price
	}
}

// Extreme returns the favorable extreme for trailing-stop computation:
// the highest price since entry for long, the lowest for short.
func (p *Position) Extreme() float64 {
	if p.Side == core.SideShort {
		return p.LowestSinceEntry
	}
	return p.HighestSinceEntry
}

// UnrealizedPnL values the open position against the current price
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == core.SideShort {
		return (p.EntryPrice - price) * float64(p.Shares)
	}
	return (price - p.EntryPrice) * float64(p.Shares)
}
