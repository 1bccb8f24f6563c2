package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/portfolio"
)

func day(n int) time.Time {
	return time.Date(2023, 1, n, 0, 0, 0, 0, time.UTC)
}

func sampleTrades() []portfolio.Trade {
	return []portfolio.Trade{
		{Date: day(2), Ticker: "005930", Action: "buy", Shares: 100, EntryPrice: 50_000, Reason: "normal_buy", EntryStage: 6},
		{Date: day(5), Ticker: "005930", Action: "sell", Shares: 100, EntryPrice: 50_000, ExitPrice: 52_000,
			PnL: 200_000, Reason: "exit_signal(sequential:lower:signal_cross)", EntryStage: 6},
		{Date: day(6), Ticker: "000660", Action: "buy", Shares: 50, EntryPrice: 80_000, Reason: "early_buy", EntryStage: 5},
	}
}

func sampleSnapshots() []portfolio.Snapshot {
	return []portfolio.Snapshot{
		{Date: day(2), Cash: 5_000_000, Equity: 10_000_000, OpenCount: 1,
			Positions: map[string]portfolio.PositionSnapshot{"005930": {Shares: 100, Value: 5_000_000}}},
		{Date: day(5), Cash: 10_200_000, Equity: 10_200_000, OpenCount: 0},
	}
}

func TestBuntStorage_RoundTrip(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, SaveResultLedgers(store, sampleTrades(), sampleSnapshots()))

	trades, err := store.Trades()
	require.NoError(t, err)
	require.Len(t, trades, 3)
	// Insertion order survives the round trip.
	require.Equal(t, "005930", trades[0].Ticker)
	require.Equal(t, "000660", trades[2].Ticker)

	snapshots, err := store.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Equal(t, 100, snapshots[0].Positions["005930"].Shares)
}

func TestBuntStorage_Filters(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	for _, trade := range sampleTrades() {
		require.NoError(t, store.SaveTrade(trade))
	}

	sells, err := store.Trades(WithAction("sell"))
	require.NoError(t, err)
	require.Len(t, sells, 1)
	require.InDelta(t, 200_000, sells[0].PnL, 1e-9)

	samsung, err := store.Trades(WithTicker("005930"))
	require.NoError(t, err)
	require.Len(t, samsung, 2)

	early, err := store.Trades(WithDateRange(day(6), day(7)))
	require.NoError(t, err)
	require.Len(t, early, 1)
	require.Equal(t, "000660", early[0].Ticker)

	both, err := store.Trades(WithTicker("005930"), WithAction("buy"))
	require.NoError(t, err)
	require.Len(t, both, 1)
}
