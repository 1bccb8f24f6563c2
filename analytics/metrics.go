// Package analytics computes performance metrics over the equity curve and
// trade ledger produced by a simulation run.
package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// TradingDaysPerYear is the annualization basis for CAGR and Sharpe
const TradingDaysPerYear = 252.0

// EquityCurve extracts the end-of-day equity series from the snapshot ledger
func EquityCurve(snapshots []portfolio.Snapshot) []float64 {
	curve := make([]float64, len(snapshots))
	for i, s := range snapshots {
		curve[i] = s.Equity
	}
	return curve
}

// DailyReturns computes the simple day-over-day returns of an equity curve
func DailyReturns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, curve[i]/curve[i-1]-1)
	}
	return returns
}

// LogReturns computes the day-over-day log returns of an equity curve.
// The Sharpe ratio is defined over log returns: a curve that ends where it
// began nets to a zero mean.
func LogReturns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] <= 0 || curve[i] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, math.Log(curve[i]/curve[i-1]))
	}
	return returns
}

// TotalReturn is the overall return of the curve as a fraction
func TotalReturn(curve []float64) float64 {
	if len(curve) < 2 || curve[0] == 0 {
		return 0
	}
	return curve[len(curve)-1]/curve[0] - 1
}

// CAGR annualizes the total return over the number of trading days covered
func CAGR(curve []float64) float64 {
	if len(curve) < 2 || curve[0] <= 0 || curve[len(curve)-1] <= 0 {
		return 0
	}
	days := float64(len(curve) - 1)
	return math.Pow(curve[len(curve)-1]/curve[0], TradingDaysPerYear/days) - 1
}

// Sharpe computes the annualized Sharpe ratio of the daily return series.
// A flat series has no defined ratio and reports zero.
func Sharpe(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	daily := annualRiskFree / TradingDaysPerYear
	return (mean - daily) / std * math.Sqrt(TradingDaysPerYear)
}

// Drawdown describes the deepest peak-to-trough decline of an equity curve
type Drawdown struct {
	MaxPct   float64 // deepest decline as a positive fraction
	Peak     time.Time
	Trough   time.Time
	Recovery time.Time // zero when the curve never regained the peak
}

// MaxDrawdown walks the curve with a running maximum and reports the deepest
// decline with its peak, trough and recovery dates.
func MaxDrawdown(snapshots []portfolio.Snapshot) Drawdown {
	var (
		dd         Drawdown
		peak       float64
		peakDate   time.Time
		troughIdx  = -1
		currentMax float64
	)
	for i, s := range snapshots {
		if s.Equity > peak {
			peak = s.Equity
			peakDate = s.Date
		}
		if peak <= 0 {
			continue
		}
		decline := (peak - s.Equity) / peak
		if decline > currentMax {
			currentMax = decline
			dd.MaxPct = decline
			dd.Peak = peakDate
			dd.Trough = s.Date
			troughIdx = i
		}
	}

	if troughIdx >= 0 {
		peakValue := dd.peakEquity(snapshots)
		for _, s := range snapshots[troughIdx+1:] {
			if s.Equity >= peakValue {
				dd.Recovery = s.Date
				break
			}
		}
	}
	return dd
}

func (d Drawdown) peakEquity(snapshots []portfolio.Snapshot) float64 {
	for _, s := range snapshots {
		if s.Date.Equal(d.Peak) {
			return s.Equity
		}
	}
	return 0
}

// TradeStats summarizes the closed trades of a run
type TradeStats struct {
	Total        int
	Wins         int
	Losses       int
	WinRatePct   float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64 // +Inf when there are wins but no losses
	NetPnL       float64
}

// SummarizeTrades computes win/loss statistics over the sell side of the
// trade ledger. Buys carry no realized pnl and are skipped.
func SummarizeTrades(trades []portfolio.Trade) TradeStats {
	var (
		stats      TradeStats
		grossWin   float64
		grossLoss  float64
	)
	for _, t := range trades {
		if t.Action != "sell" {
			continue
		}
		stats.Total++
		stats.NetPnL += t.PnL
		if t.IsWin() {
			stats.Wins++
			grossWin += t.PnL
		} else {
			stats.Losses++
			grossLoss += -t.PnL
		}
	}

	if stats.Total > 0 {
		stats.WinRatePct = float64(stats.Wins) / float64(stats.Total) * 100
	}
	if stats.Wins > 0 {
		stats.AvgWin = grossWin / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = grossLoss / float64(stats.Losses)
	}
	switch {
	case grossLoss > 0:
		stats.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		stats.ProfitFactor = math.Inf(1)
	}
	return stats
}
