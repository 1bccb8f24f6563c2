package core

// Direction labels the short-term tendency of a MACD line
type Direction int8

const (
	DirectionNeutral Direction = iota
	DirectionUp
	DirectionDown
)

// String returns the textual label of the direction
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "neutral"
	}
}

// Side identifies the structural side of a position.
// The engine only opens long positions; short is retained for the stop-loss
// formulas, which are specified for both sides.
type Side int8

const (
	SideLong Side = iota
	SideShort
)

// String returns the textual label of the side
func (s Side) String() string {
	if s == SideShort {
		return "short"
	}
	return "long"
}

// StopKind identifies which rule produced a stop price
type StopKind int8

const (
	StopVolatility StopKind = iota
	StopTrend
)

// String returns the textual label of the stop kind
func (k StopKind) String() string {
	if k == StopTrend {
		return "trend"
	}
	return "volatility"
}

// MACDSlot identifies one of the three MACD triplets by smoothing order
type MACDSlot int8

const (
	MACDUpper  MACDSlot = iota // fastest triplet
	MACDMiddle                 // middle triplet
	MACDLower                  // slowest triplet
)

// String returns the textual label of the MACD slot
func (m MACDSlot) String() string {
	switch m {
	case MACDUpper:
		return "upper"
	case MACDMiddle:
		return "middle"
	default:
		return "lower"
	}
}

// MACDSlots lists the three slots in priority order (fastest first)
var MACDSlots = [3]MACDSlot{MACDUpper, MACDMiddle, MACDLower}
