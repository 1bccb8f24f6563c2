// Package feed defines the market-data provider interfaces the engine
// consumes and a CSV-backed implementation for local datasets.
package feed

import (
	"context"
	"time"

	"github.com/quantfoundry/stagetrader/core"
)

// Market selects a ticker universe
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
	MarketAll    Market = "ALL"
)

// BarProvider loads the daily bar series of one ticker. A failed load returns
// an error; the universe loader responds by dropping the ticker with a
// warning rather than aborting the run.
type BarProvider interface {
	LoadBars(ctx context.Context, ticker string, start, end time.Time) ([]core.Bar, error)
}

// TickerLister enumerates the tickers of a market
type TickerLister interface {
	ListTickers(market Market) ([]string, error)
}
