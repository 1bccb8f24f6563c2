package risk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
)

func testGate() *Gate {
	return NewGate(DefaultGateConfig(), NewGroups(nil), nil)
}

func TestGate_ExitAlwaysApproved(t *testing.T) {
	approval := testGate().Evaluate(Candidate{Ticker: "005930", Action: ActionExit},
		Environment{Balance: 10_000_000})

	require.True(t, approval.Approved)
	require.Equal(t, "exit", approval.Reason)
	require.Zero(t, approval.Shares)
}

func TestGate_ApprovesStrongSignal(t *testing.T) {
	approval := testGate().Evaluate(Candidate{
		Ticker:   "005930",
		Action:   ActionBuy,
		Strength: 85,
		Price:    50_000,
		ATR:      1_000,
		TrendMA:  49_000,
	}, Environment{Balance: 10_000_000})

	require.True(t, approval.Approved)
	// Unit size 100, desired 200 shares, capital cap 50 binds.
	require.Equal(t, 50, approval.Shares)
	require.Equal(t, 1, approval.Units)
	require.InDelta(t, 49_000, approval.StopPrice, 1e-9)
	require.Equal(t, core.StopTrend, approval.StopKind)
	require.InDelta(t, 50_000, approval.RiskAmount, 1e-9)
}

func TestGate_RejectsWeakSignal(t *testing.T) {
	approval := testGate().Evaluate(Candidate{
		Ticker:   "005930",
		Action:   ActionBuy,
		Strength: 45,
		Price:    50_000,
		ATR:      1_000,
	}, Environment{Balance: 10_000_000})

	require.False(t, approval.Approved)
	require.Equal(t, "signal_too_weak", approval.Reason)
}

func TestGate_RejectsAtPortfolioLimit(t *testing.T) {
	approval := testGate().Evaluate(Candidate{
		Ticker:   "005930",
		Action:   ActionBuy,
		Strength: 85,
		Price:    50_000,
		ATR:      1_000,
	}, Environment{
		Balance: 10_000_000,
		Positions: map[string]HeldPosition{
			"005930": {Units: 4, Shares: 100, Entry: 50_000, Stop: 49_900},
		},
	})

	require.False(t, approval.Approved)
	require.Equal(t, "portfolio_limit: single", approval.Reason)
}

func TestGate_ClampsToAvailableUnits(t *testing.T) {
	// Price 10000 lifts the capital cap to 250 shares, so the request is
	// 200 shares / 2 units; 3 units already held leaves room for 1.
	approval := testGate().Evaluate(Candidate{
		Ticker:   "005930",
		Action:   ActionBuy,
		Strength: 85,
		Price:    10_000,
		ATR:      1_000,
		TrendMA:  9_900,
	}, Environment{
		Balance: 10_000_000,
		Positions: map[string]HeldPosition{
			"005930": {Units: 3, Shares: 100, Entry: 10_000, Stop: 9_950},
		},
	})

	require.True(t, approval.Approved)
	require.Equal(t, 1, approval.Units)
	require.Equal(t, 100, approval.Shares)
	require.NotEmpty(t, approval.Warnings)
}

func TestGate_RejectsWhenRiskBudgetSpent(t *testing.T) {
	// The held position already risks 195k of the 200k portfolio budget.
	approval := testGate().Evaluate(Candidate{
		Ticker:   "000660",
		Action:   ActionBuy,
		Strength: 85,
		Price:    50_000,
		ATR:      1_000,
	}, Environment{
		Balance: 10_000_000,
		Positions: map[string]HeldPosition{
			"005930": {Units: 2, Shares: 195, Entry: 50_000, Stop: 49_000},
		},
	})

	require.False(t, approval.Approved)
	require.Equal(t, "risk_limit_exceeded", approval.Reason)
}

func TestGate_RejectsOnInvalidATR(t *testing.T) {
	approval := testGate().Evaluate(Candidate{
		Ticker:   "005930",
		Action:   ActionBuy,
		Strength: 85,
		Price:    50_000,
		ATR:      0,
	}, Environment{Balance: 10_000_000})

	require.False(t, approval.Approved)
	require.Contains(t, approval.Reason, "sizing failed")
}
