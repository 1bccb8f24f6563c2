package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tidwall/buntdb"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// BuntStorage implements LedgerStorage using BuntDB. Trades and snapshots are
// stored as JSON under prefixed keys and read back in insertion order, which
// preserves the append-only ordering of the ledgers.
type BuntStorage struct {
	lastTradeID    int64
	lastSnapshotID int64
	db             *buntdb.DB
}

// FromMemory creates an in-memory ledger store
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-backed ledger store
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage opens the database and sets up the ledger indexes
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.CreateIndex("trade_index", "trade:*", buntdb.IndexString); err != nil {
		return nil, fmt.Errorf("failed to create trade index: %w", err)
	}
	if err := db.CreateIndex("snapshot_index", "snapshot:*", buntdb.IndexString); err != nil {
		return nil, fmt.Errorf("failed to create snapshot index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

// tradeKey builds a zero-padded key so lexical index order matches insertion
func tradeKey(id int64) string { return fmt.Sprintf("trade:%012d", id) }

func snapshotKey(id int64) string { return fmt.Sprintf("snapshot:%012d", id) }

// SaveTrade appends one trade to the store
func (b *BuntStorage) SaveTrade(trade portfolio.Trade) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade: %w", err)
		}

		id := atomic.AddInt64(&b.lastTradeID, 1)
		_, _, err = tx.Set(tradeKey(id), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store trade: %w", err)
		}
		return nil
	})
}

// SaveSnapshot appends one daily snapshot to the store
func (b *BuntStorage) SaveSnapshot(snapshot portfolio.Snapshot) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		content, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		id := atomic.AddInt64(&b.lastSnapshotID, 1)
		_, _, err = tx.Set(snapshotKey(id), string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		return nil
	})
}

// Trades reads back the trade ledger, applying the filters in memory
func (b *BuntStorage) Trades(filters ...TradeFilter) ([]portfolio.Trade, error) {
	trades := make([]portfolio.Trade, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("trade_index", func(key, value string) bool {
			if !strings.HasPrefix(key, "trade:") {
				return true
			}
			var trade portfolio.Trade
			if err := json.Unmarshal([]byte(value), &trade); err != nil {
				return true
			}
			for _, filter := range filters {
				if !filter(trade) {
					return true
				}
			}
			trades = append(trades, trade)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over trades: %w", err)
	}
	return trades, nil
}

// Snapshots reads back the snapshot ledger in date order
func (b *BuntStorage) Snapshots() ([]portfolio.Snapshot, error) {
	snapshots := make([]portfolio.Snapshot, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("snapshot_index", func(key, value string) bool {
			if !strings.HasPrefix(key, "snapshot:") {
				return true
			}
			var snap portfolio.Snapshot
			if err := json.Unmarshal([]byte(value), &snap); err != nil {
				return true
			}
			snapshots = append(snapshots, snap)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over snapshots: %w", err)
	}
	return snapshots, nil
}

// Close closes the database
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
