package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantfoundry/stagetrader/core"
)

// PositionSnapshot is the per-ticker slice of a daily snapshot
type PositionSnapshot struct {
	Shares        int
	Value         float64
	UnrealizedPnL float64
}

// Snapshot records the portfolio state at the end of a trading day
type Snapshot struct {
	Date      time.Time
	Cash      float64
	Equity    float64
	OpenCount int
	Positions map[string]PositionSnapshot
}

// Portfolio holds cash, open positions and the append-only trade and snapshot
// ledgers. It is owned exclusively by the simulation driver; no internal
// locking.
type Portfolio struct {
	initialCapital float64
	cash           float64

	open      map[string]*Position
	closed    []Position
	trades    []Trade
	snapshots []Snapshot

	log core.Logger
}

// New creates a portfolio. A non-positive initial capital is fatal.
func New(initialCapital float64, log core.Logger) (*Portfolio, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %f",
			core.ErrInvalidInput, initialCapital)
	}
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		open:           make(map[string]*Position),
		log:            log,
	}, nil
}

// InitialCapital returns the starting capital
func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }

// Cash returns the current cash balance
func (p *Portfolio) Cash() float64 { return p.cash }

// Position returns the open position for a ticker
func (p *Portfolio) Position(ticker string) (*Position, bool) {
	pos, ok := p.open[ticker]
	return pos, ok
}

// OpenTickers returns the tickers with open positions in sorted order
func (p *Portfolio) OpenTickers() []string {
	out := make([]string, 0, len(p.open))
	for ticker := range p.open {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// OpenCount returns the number of open positions
func (p *Portfolio) OpenCount() int { return len(p.open) }

// Trades returns the append-only trade ledger
func (p *Portfolio) Trades() []Trade { return p.trades }

// Snapshots returns the append-only snapshot ledger
func (p *Portfolio) Snapshots() []Snapshot { return p.snapshots }

// ClosedPositions returns the retired positions
func (p *Portfolio) ClosedPositions() []Position { return p.closed }

// Entry describes a buy to apply to the portfolio
type Entry struct {
	Date     time.Time
	Ticker   string
	Fill     Fill
	Shares   int
	Units    int
	Stop     float64
	StopKind core.StopKind
	Strength float64
	Stage    int
	Reason   string
}

// Add applies a buy fill: it guards cash, merges into an existing position or
// opens a new one, and writes the buy to the trade ledger. The risk gate
// prevents shortfalls upstream by sizing on equity, but cash is still guarded
// here.
func (p *Portfolio) Add(e Entry) error {
	cost := -e.Fill.CashDelta
	if cost > p.cash {
		return fmt.Errorf("%w: cost %.0f exceeds cash %.0f", core.ErrInsufficientFunds, cost, p.cash)
	}
	if e.Shares <= 0 {
		return fmt.Errorf("%w: %d shares", core.ErrInvalidQuantity, e.Shares)
	}

	p.cash -= cost

	if pos, ok := p.open[e.Ticker]; ok {
		pos.AddFill(e.Fill.Price, e.Shares, e.Units)
		// A tighter stop from the new fill replaces the old one.
		if e.Stop > pos.StopPrice {
			pos.StopPrice, pos.StopKind = e.Stop, e.StopKind
		}
	} else {
		pos := &Position{
			Ticker:                e.Ticker,
			Side:                  core.SideLong,
			EntryDate:             e.Date,
			EntryPrice:            e.Fill.Price,
			Shares:                e.Shares,
			Units:                 e.Units,
			StopPrice:             e.Stop,
			StopKind:              e.StopKind,
			SignalStrengthAtEntry: e.Strength,
			StageAtEntry:          e.Stage,
		}
		pos.UpdateExtremes(e.Fill.Price)
		p.open[e.Ticker] = pos
	}

	p.trades = append(p.trades, Trade{
		Date:       e.Date,
		Ticker:     e.Ticker,
		Action:     "buy",
		Shares:     e.Shares,
		EntryPrice: e.Fill.Price,
		Reason:     e.Reason,
		Commission: e.Fill.Commission,
		EntryStage: e.Stage,
	})
	return nil
}

// Close applies a sell fill for part or all of an open position: it realizes
// pnl against the average entry price, credits cash with the net proceeds,
// writes the sell to the trade ledger, and retires the position on full close.
func (p *Portfolio) Close(date time.Time, ticker string, shares int, fill Fill, reason string) (Trade, error) {
	pos, ok := p.open[ticker]
	if !ok {
		return Trade{}, fmt.Errorf("%w: %s", core.ErrPositionNotFound, ticker)
	}
	if shares <= 0 || shares > pos.Shares {
		return Trade{}, fmt.Errorf("%w: close %d of %d shares", core.ErrInvalidQuantity, shares, pos.Shares)
	}

	pnl := (fill.Price - pos.EntryPrice) * float64(shares)
	p.cash += fill.CashDelta

	trade := Trade{
		Date:        date,
		Ticker:      ticker,
		Action:      "sell",
		Shares:      shares,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   fill.Price,
		PnL:         pnl,
		ReturnPct:   (fill.Price - pos.EntryPrice) / pos.EntryPrice * 100,
		HoldingDays: int(date.Sub(pos.EntryDate).Hours() / 24),
		Reason:      ClassifyCloseReason(reason, pnl),
		Commission:  fill.Commission,
		EntryStage:  pos.StageAtEntry,
	}
	p.trades = append(p.trades, trade)

	pos.Reduce(shares)
	if pos.Shares == 0 {
		p.closed = append(p.closed, *pos)
		delete(p.open, ticker)
	}

	return trade, nil
}

// Equity values the portfolio: cash plus open positions at current prices,
// falling back to the entry price when a ticker has no price for the day.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	equity := p.cash
	for ticker, pos := range p.open {
		price, ok := prices[ticker]
		if !ok {
			price = pos.EntryPrice
		}
		equity += float64(pos.Shares) * price
	}
	return equity
}

// TakeSnapshot appends the end-of-day snapshot to the ledger
func (p *Portfolio) TakeSnapshot(date time.Time, prices map[string]float64) Snapshot {
	snap := Snapshot{
		Date:      date,
		Cash:      p.cash,
		Equity:    p.Equity(prices),
		OpenCount: len(p.open),
		Positions: make(map[string]PositionSnapshot, len(p.open)),
	}
	for ticker, pos := range p.open {
		price, ok := prices[ticker]
		if !ok {
			price = pos.EntryPrice
		}
		snap.Positions[ticker] = PositionSnapshot{
			Shares:        pos.Shares,
			Value:         float64(pos.Shares) * price,
			UnrealizedPnL: pos.UnrealizedPnL(price),
		}
	}
	p.snapshots = append(p.snapshots, snap)
	return snap
}
