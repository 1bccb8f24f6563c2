// Package storage persists trade and snapshot ledgers so runs can be
// inspected or compared after the process exits.
package storage

import (
	"time"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// TradeFilter narrows a ledger query
type TradeFilter func(portfolio.Trade) bool

// WithTicker keeps trades of one ticker
func WithTicker(ticker string) TradeFilter {
	return func(t portfolio.Trade) bool { return t.Ticker == ticker }
}

// WithAction keeps trades of one action ("buy" or "sell")
func WithAction(action string) TradeFilter {
	return func(t portfolio.Trade) bool { return t.Action == action }
}

// WithDateRange keeps trades inside [start, end]
func WithDateRange(start, end time.Time) TradeFilter {
	return func(t portfolio.Trade) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	}
}

// LedgerStorage persists the outputs of a simulation run
type LedgerStorage interface {
	SaveTrade(trade portfolio.Trade) error
	SaveSnapshot(snapshot portfolio.Snapshot) error
	Trades(filters ...TradeFilter) ([]portfolio.Trade, error)
	Snapshots() ([]portfolio.Snapshot, error)
	Close() error
}

// SaveResultLedgers writes a full run to the store
func SaveResultLedgers(store LedgerStorage, trades []portfolio.Trade, snapshots []portfolio.Snapshot) error {
	for _, t := range trades {
		if err := store.SaveTrade(t); err != nil {
			return err
		}
	}
	for _, s := range snapshots {
		if err := store.SaveSnapshot(s); err != nil {
			return err
		}
	}
	return nil
}
