package backtest

import (
	"io"
	"time"

	"github.com/quantfoundry/stagetrader/analytics"
	"github.com/quantfoundry/stagetrader/portfolio"
)

// Result is the immutable outcome of a simulation run
type Result struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	FinalCapital   float64
	TotalReturnPct float64
	MaxDrawdownPct float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRatePct     float64
	ScannedTickers int

	Snapshots []portfolio.Snapshot
	Trades    []portfolio.Trade
}

// buildResult derives the run summary from the portfolio ledgers
func (e *Engine) buildResult(start, end time.Time) *Result {
	snapshots := e.pf.Snapshots()
	trades := e.pf.Trades()

	curve := analytics.EquityCurve(snapshots)
	stats := analytics.SummarizeTrades(trades)
	dd := analytics.MaxDrawdown(snapshots)

	final := e.pf.Cash()
	if len(curve) > 0 {
		final = curve[len(curve)-1]
	}

	return &Result{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: e.pf.InitialCapital(),
		FinalCapital:   final,
		TotalReturnPct: (final/e.pf.InitialCapital() - 1) * 100,
		MaxDrawdownPct: dd.MaxPct * 100,
		TotalTrades:    stats.Total,
		WinningTrades:  stats.Wins,
		LosingTrades:   stats.Losses,
		WinRatePct:     stats.WinRatePct,
		ScannedTickers: len(e.tickers),
		Snapshots:      snapshots,
		Trades:         trades,
	}
}

// Summary renders the full text report of the run
func (r *Result) Summary(w io.Writer) {
	analytics.WriteSummary(w, analytics.Report{
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		Snapshots:      r.Snapshots,
		Trades:         r.Trades,
	})
}
