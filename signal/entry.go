// Package signal implements entry emission, the three-level exit chain,
// signal-strength scoring and signal filtering.
package signal

import (
	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/stage"
)

// EntryType names the entry signal variants
type EntryType int8

const (
	EntryNone EntryType = iota
	NormalBuy
	EarlyBuy
	NormalSell
	EarlySell
)

// String returns the trade-reason label of the entry type
func (t EntryType) String() string {
	switch t {
	case NormalBuy:
		return "normal_buy"
	case EarlyBuy:
		return "early_buy"
	case NormalSell:
		return "normal_sell"
	case EarlySell:
		return "early_sell"
	default:
		return "none"
	}
}

// Entry is the per-bar entry signal: Signal is 2/1 for normal/early buys,
// -2/-1 for normal/early sells, 0 for no signal.
type Entry struct {
	Signal int
	Type   EntryType
}

// EvaluateEntry emits at most one entry signal for a bar from the stage label
// and the direction triple of the three MACD lines. Early variants require
// enableEarly; the normal variant is never present on the same bar because it
// binds to a different stage.
func EvaluateEntry(stageLabel int, dirs [3]core.Direction, enableEarly bool) Entry {
	allUp := dirs[0] == core.DirectionUp && dirs[1] == core.DirectionUp && dirs[2] == core.DirectionUp
	allDown := dirs[0] == core.DirectionDown && dirs[1] == core.DirectionDown && dirs[2] == core.DirectionDown

	switch {
	case stageLabel == stage.Recovery && allUp:
		return Entry{Signal: 2, Type: NormalBuy}
	case stageLabel == stage.EarlyRecovery && allUp && enableEarly:
		return Entry{Signal: 1, Type: EarlyBuy}
	case stageLabel == stage.Decline && allDown:
		return Entry{Signal: -2, Type: NormalSell}
	case stageLabel == stage.EarlyDecline && allDown && enableEarly:
		return Entry{Signal: -1, Type: EarlySell}
	default:
		return Entry{}
	}
}

// EntryAt evaluates the entry signal on a frame index
func EntryAt(f *core.Frame, i int, enableEarly bool) Entry {
	if i < 0 || i >= f.Len() || f.Stage == nil {
		return Entry{}
	}
	return EvaluateEntry(f.Stage[i], f.Directions(i), enableEarly)
}
