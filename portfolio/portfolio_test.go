package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
)

func day(n int) time.Time {
	return time.Date(2023, 1, n, 0, 0, 0, 0, time.UTC)
}

func buyFill(price float64, shares int) Fill {
	return Fill{Price: price, CashDelta: -price * float64(shares)}
}

func sellFill(price float64, shares int) Fill {
	return Fill{Price: price, CashDelta: price * float64(shares)}
}

func testPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	pf, err := New(10_000_000, nil)
	require.NoError(t, err)
	return pf
}

func TestNew_RejectsNonPositiveCapital(t *testing.T) {
	_, err := New(0, nil)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAdd_OpensPosition(t *testing.T) {
	pf := testPortfolio(t)

	err := pf.Add(Entry{
		Date: day(1), Ticker: "005930", Fill: buyFill(50_000, 100),
		Shares: 100, Units: 1, Stop: 48_000, StopKind: core.StopVolatility,
		Strength: 85, Stage: 6, Reason: "normal_buy",
	})
	require.NoError(t, err)

	pos, ok := pf.Position("005930")
	require.True(t, ok)
	require.Equal(t, 100, pos.Shares)
	require.InDelta(t, 50_000, pos.EntryPrice, 1e-9)
	require.InDelta(t, 5_000_000, pf.Cash(), 1e-9)

	require.Len(t, pf.Trades(), 1)
	require.Equal(t, "buy", pf.Trades()[0].Action)
	require.Equal(t, "normal_buy", pf.Trades()[0].Reason)
	require.Equal(t, 6, pf.Trades()[0].EntryStage)
}

func TestAdd_MergeAveragesEntryPrice(t *testing.T) {
	pf := testPortfolio(t)

	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 50), Shares: 50, Units: 1, Stop: 48_000}))
	require.NoError(t, pf.Add(Entry{Date: day(2), Ticker: "005930",
		Fill: buyFill(54_000, 50), Shares: 50, Units: 1, Stop: 52_000}))

	pos, _ := pf.Position("005930")
	require.Equal(t, 100, pos.Shares)
	require.Equal(t, 2, pos.Units)
	require.InDelta(t, 52_000, pos.EntryPrice, 1e-9) // volume-weighted average
	require.InDelta(t, 52_000, pos.StopPrice, 1e-9)  // tighter stop replaces
	require.InDelta(t, 10_000_000-50*50_000-50*54_000, pf.Cash(), 1e-9)
}

func TestAdd_LooserStopDoesNotReplace(t *testing.T) {
	pf := testPortfolio(t)

	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1, Stop: 48_000}))
	require.NoError(t, pf.Add(Entry{Date: day(2), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1, Stop: 40_000}))

	pos, _ := pf.Position("005930")
	require.InDelta(t, 48_000, pos.StopPrice, 1e-9)
}

func TestAdd_GuardsCash(t *testing.T) {
	pf := testPortfolio(t)

	err := pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 1_000), Shares: 1_000, Units: 1})

	require.ErrorIs(t, err, core.ErrInsufficientFunds)
	require.InDelta(t, 10_000_000, pf.Cash(), 1e-9)
	require.Empty(t, pf.Trades())
}

func TestClose_PartialPreservesAveragePrice(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 2, Stop: 48_000}))

	trade, err := pf.Close(day(5), "005930", 50, sellFill(55_000, 50), "exit_signal(sequential:middle:macd_peakout)")
	require.NoError(t, err)

	require.InDelta(t, 250_000, trade.PnL, 1e-9)
	require.InDelta(t, 10, trade.ReturnPct, 1e-9)
	require.Equal(t, 4, trade.HoldingDays)

	pos, ok := pf.Position("005930")
	require.True(t, ok)
	require.Equal(t, 50, pos.Shares)
	require.Equal(t, 1, pos.Units)
	require.InDelta(t, 50_000, pos.EntryPrice, 1e-9)
}

func TestClose_FullRetiresPosition(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1, Stop: 48_000}))

	_, err := pf.Close(day(3), "005930", 100, sellFill(48_000, 100), "stop_loss(volatility)")
	require.NoError(t, err)

	_, ok := pf.Position("005930")
	require.False(t, ok)
	require.Len(t, pf.ClosedPositions(), 1)
}

func TestClose_ReclassifiesProfitableStop(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1, Stop: 48_000}))

	// Stop fired above the entry: only a trailing stop gets there.
	trade, err := pf.Close(day(9), "005930", 100, sellFill(51_000, 100), "stop_loss(volatility)")
	require.NoError(t, err)
	require.Equal(t, "trailing_stop(volatility)", trade.Reason)
}

func TestClose_Validation(t *testing.T) {
	pf := testPortfolio(t)

	_, err := pf.Close(day(1), "missing", 10, sellFill(1_000, 10), "x")
	require.ErrorIs(t, err, core.ErrPositionNotFound)

	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1}))
	_, err = pf.Close(day(2), "005930", 200, sellFill(50_000, 200), "x")
	require.ErrorIs(t, err, core.ErrInvalidQuantity)
}

func TestEquity_FallsBackToEntryPrice(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1}))

	// No price for the day: the position values at its entry.
	require.InDelta(t, 10_000_000, pf.Equity(map[string]float64{}), 1e-9)
	require.InDelta(t, 10_200_000, pf.Equity(map[string]float64{"005930": 52_000}), 1e-9)
}

func TestLedgers_AppendOnly(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1}))
	_, err := pf.Close(day(2), "005930", 100, sellFill(51_000, 100), "exit_signal(sequential:lower:signal_cross)")
	require.NoError(t, err)

	pf.TakeSnapshot(day(2), map[string]float64{})

	require.Len(t, pf.Trades(), 2)
	require.Equal(t, "buy", pf.Trades()[0].Action)
	require.Equal(t, "sell", pf.Trades()[1].Action)
	require.Len(t, pf.Snapshots(), 1)
	require.Equal(t, 0, pf.Snapshots()[0].OpenCount)
}

func TestTakeSnapshot_RecordsPositions(t *testing.T) {
	pf := testPortfolio(t)
	require.NoError(t, pf.Add(Entry{Date: day(1), Ticker: "005930",
		Fill: buyFill(50_000, 100), Shares: 100, Units: 1}))

	snap := pf.TakeSnapshot(day(1), map[string]float64{"005930": 52_000})

	require.Equal(t, 1, snap.OpenCount)
	require.InDelta(t, 5_200_000, snap.Positions["005930"].Value, 1e-9)
	require.InDelta(t, 200_000, snap.Positions["005930"].UnrealizedPnL, 1e-9)
	require.InDelta(t, 10_200_000, snap.Equity, 1e-9)
}
