package portfolio

import (
	"fmt"

	"github.com/quantfoundry/stagetrader/core"
)

// OrderType distinguishes market and limit orders. The simulation driver
// only submits market orders; limit orders are accepted by the executor for
// completeness but carry no book interaction.
type OrderType int8

const (
	OrderMarket OrderType = iota
	OrderLimit
)

// Order is an execution request
type Order struct {
	Type   OrderType
	Ticker string
	Buy    bool
	Shares int
	Price  float64 // market price, or the limit price for limit orders
}

// Fill is the result of executing an order
type Fill struct {
	Price      float64 // slippage-adjusted fill price
	Commission float64
	CashDelta  float64 // signed change to cash: negative for buys
}

// Executor applies slippage and commission to orders
type Executor struct {
	SlippagePct    float64
	CommissionRate float64
}

// NewExecutor validates and creates an executor. Negative slippage or
// commission is a fatal configuration error.
func NewExecutor(slippagePct, commissionRate float64) (*Executor, error) {
	if slippagePct < 0 {
		return nil, fmt.Errorf("%w: slippage must be non-negative, got %f", core.ErrInvalidInput, slippagePct)
	}
	if commissionRate < 0 {
		return nil, fmt.Errorf("%w: commission rate must be non-negative, got %f", core.ErrInvalidInput, commissionRate)
	}
	return &Executor{SlippagePct: slippagePct, CommissionRate: commissionRate}, nil
}

// FillPrice returns the slippage-adjusted price: buys fill above market,
// sells below.
func (e *Executor) FillPrice(marketPrice float64, buy bool) float64 {
	if buy {
		return marketPrice * (1 + e.SlippagePct)
	}
	return marketPrice * (1 - e.SlippagePct)
}

// Commission computes the commission on a fill
func (e *Executor) Commission(fillPrice float64, shares int) float64 {
	return fillPrice * float64(shares) * e.CommissionRate
}

// Execute fills a market order and returns the fill economics.
// Limit orders fill at their limit price with no slippage.
func (e *Executor) Execute(order Order) (Fill, error) {
	if order.Shares <= 0 {
		return Fill{}, fmt.Errorf("%w: %d shares", core.ErrInvalidQuantity, order.Shares)
	}
	if order.Price <= 0 {
		return Fill{}, fmt.Errorf("%w: price must be positive, got %f", core.ErrInvalidInput, order.Price)
	}

	price := order.Price
	if order.Type == OrderMarket {
		price = e.FillPrice(order.Price, order.Buy)
	}
	commission := e.Commission(price, order.Shares)

	gross := price * float64(order.Shares)
	delta := gross - commission
	if order.Buy {
		delta = -(gross + commission)
	}

	return Fill{Price: price, Commission: commission, CashDelta: delta}, nil
}
