package core

import "errors"

var (
	// ErrInvalidInput is returned when a caller passes out-of-range or malformed data
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData is returned when there is not enough data to fulfill a request
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInsufficientFunds is returned when an order cost exceeds available cash
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPositionNotFound is returned when closing a ticker with no open position
	ErrPositionNotFound = errors.New("position not found")

	// ErrInvalidQuantity is returned when an order quantity is zero or negative
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrEmptyUniverse is returned when no ticker produced any usable data
	ErrEmptyUniverse = errors.New("no tickers produced data")
)
