package portfolio

import (
	"strings"
	"time"
)

// Trade is one ledger entry; exactly one execution produces one trade
type Trade struct {
	Date        time.Time
	Ticker      string
	Action      string // "buy" or "sell"
	Shares      int
	EntryPrice  float64
	ExitPrice   float64
	PnL         float64
	ReturnPct   float64
	HoldingDays int
	Reason      string
	Commission  float64
	EntryStage  int
}

// IsWin reports whether the closed trade realized a profit
func (t Trade) IsWin() bool {
	return t.Action == "sell" && t.PnL > 0
}

// ClassifyCloseReason reclassifies a stop-loss exit that realized a profit as
// a trailing stop: the stop only reached above the entry by trailing.
func ClassifyCloseReason(reason string, pnl float64) string {
	if pnl > 0 && strings.HasPrefix(reason, "stop_loss(") {
		return "trailing_stop(" + strings.TrimPrefix(reason, "stop_loss(")
	}
	return reason
}
