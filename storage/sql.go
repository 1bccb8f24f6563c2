package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// TradeRecord is the relational projection of a ledger trade
type TradeRecord struct {
	ID          uint `gorm:"primarykey"`
	Date        time.Time
	Ticker      string `gorm:"index"`
	Action      string
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

// SnapshotRecord is the relational projection of a daily snapshot. The
// per-ticker position map is stored as JSON; queries slice on the scalars.
type SnapshotRecord struct {
	ID        uint      `gorm:"primarykey"`
	Date      time.Time `gorm:"index"`
	Cash      float64
	Equity    float64
	OpenCount int
	Positions []byte
}

// SQLStorage implements LedgerStorage over a SQL database via GORM. The
// dialector comes from the caller, so any GORM-supported database works.
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL opens the database, configures pooling and runs the migrations
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&TradeRecord{}, &SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// SaveTrade appends one trade to the database
func (s *SQLStorage) SaveTrade(trade portfolio.Trade) error {
	record := TradeRecord{
		Date:        trade.Date,
		Ticker:      trade.Ticker,
		Action:      trade.Action,
		Shares:      trade.Shares,
		EntryPrice:  trade.EntryPrice,
		ExitPrice:   trade.ExitPrice,
		PnL:         trade.PnL,
		ReturnPct:   trade.ReturnPct,
		HoldingDays: trade.HoldingDays,
		Reason:      trade.Reason,
		Commission:  trade.Commission,
		EntryStage:  trade.EntryStage,
	}
	if result := s.db.Create(&record); result.Error != nil {
		return fmt.Errorf("failed to create trade: %w", result.Error)
	}
	return nil
}

// SaveSnapshot appends one daily snapshot to the database
func (s *SQLStorage) SaveSnapshot(snapshot portfolio.Snapshot) error {
	positions, err := json.Marshal(snapshot.Positions)
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}
	record := SnapshotRecord{
		Date:      snapshot.Date,
		Cash:      snapshot.Cash,
		Equity:    snapshot.Equity,
		OpenCount: snapshot.OpenCount,
		Positions: positions,
	}
	if result := s.db.Create(&record); result.Error != nil {
		return fmt.Errorf("failed to create snapshot: %w", result.Error)
	}
	return nil
}

// Trades reads back the trade ledger in insertion order, applying the filters
// in memory.
func (s *SQLStorage) Trades(filters ...TradeFilter) ([]portfolio.Trade, error) {
	var records []TradeRecord
	result := s.db.Order("id").Find(&records)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch trades: %w", result.Error)
	}

	trades := lo.Map(records, func(r TradeRecord, _ int) portfolio.Trade {
		return portfolio.Trade{
			Date:        r.Date,
			Ticker:      r.Ticker,
			Action:      r.Action,
			Shares:      r.Shares,
			EntryPrice:  r.EntryPrice,
			ExitPrice:   r.ExitPrice,
			PnL:         r.PnL,
			ReturnPct:   r.ReturnPct,
			HoldingDays: r.HoldingDays,
			Reason:      r.Reason,
			Commission:  r.Commission,
			EntryStage:  r.EntryStage,
		}
	})

	return lo.Filter(trades, func(t portfolio.Trade, _ int) bool {
		for _, filter := range filters {
			if !filter(t) {
				return false
			}
		}
		return true
	}), nil
}

// Snapshots reads back the snapshot ledger in insertion order
func (s *SQLStorage) Snapshots() ([]portfolio.Snapshot, error) {
	var records []SnapshotRecord
	result := s.db.Order("id").Find(&records)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", result.Error)
	}

	snapshots := make([]portfolio.Snapshot, 0, len(records))
	for _, r := range records {
		snap := portfolio.Snapshot{
			Date:      r.Date,
			Cash:      r.Cash,
			Equity:    r.Equity,
			OpenCount: r.OpenCount,
		}
		if len(r.Positions) > 0 {
			if err := json.Unmarshal(r.Positions, &snap.Positions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal positions: %w", err)
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// WithTransaction executes the given function within a database transaction
func (s *SQLStorage) WithTransaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}
