package analytics

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// Report bundles everything the text summary renders
type Report struct {
	InitialCapital float64
	FinalCapital   float64
	Snapshots      []portfolio.Snapshot
	Trades         []portfolio.Trade
	RiskFreeRate   float64
}

// WriteSummary renders the run summary: a metrics table, a histogram of daily
// returns, a bootstrap confidence interval and the stage/exit cross-tab.
func WriteSummary(w io.Writer, r Report) {
	curve := EquityCurve(r.Snapshots)
	returns := DailyReturns(curve)
	stats := SummarizeTrades(r.Trades)
	dd := MaxDrawdown(r.Snapshots)

	table := tablewriter.NewWriter(w)
	data := [][]string{
		{"Initial Capital", fmt.Sprintf("%.0f", r.InitialCapital)},
		{"Final Capital", fmt.Sprintf("%.0f", r.FinalCapital)},
		{"Total Return", fmt.Sprintf("%.2f%%", TotalReturn(curve)*100)},
		{"CAGR", fmt.Sprintf("%.2f%%", CAGR(curve)*100)},
		{"Sharpe", fmt.Sprintf("%.2f", Sharpe(LogReturns(curve), r.RiskFreeRate))},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", dd.MaxPct*100)},
		{"Trades", strconv.Itoa(stats.Total)},
		{"Win Rate", fmt.Sprintf("%.1f%%", stats.WinRatePct)},
		{"Avg Win", fmt.Sprintf("%.0f", stats.AvgWin)},
		{"Avg Loss", fmt.Sprintf("%.0f", stats.AvgLoss)},
		{"Profit Factor", formatProfitFactor(stats.ProfitFactor)},
	}
	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	if !dd.Peak.IsZero() {
		recovery := "never"
		if !dd.Recovery.IsZero() {
			recovery = dd.Recovery.Format("2006-01-02")
		}
		fmt.Fprintf(w, "Drawdown peak %s, trough %s, recovered %s\n\n",
			dd.Peak.Format("2006-01-02"), dd.Trough.Format("2006-01-02"), recovery)
	}

	if len(returns) > 0 {
		fmt.Fprintln(w, "------ DAILY RETURNS (%) ------")
		percent := make([]float64, len(returns))
		for i, p := range returns {
			percent[i] = p * 100
		}
		hist := histogram.Hist(15, percent)
		_ = histogram.Fprint(w, hist, histogram.Linear(10))
		fmt.Fprintln(w)

		ci := Bootstrap(returns, 2000, 0.95)
		fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) ------")
		fmt.Fprintf(w, "annualized return: %.2f%% (%.2f%% ~ %.2f%%)\n\n",
			ci.Estimate*100, ci.Lower*100, ci.Upper*100)
	}

	WriteCrossTab(w, r.Trades)
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

// SummaryString renders the summary to a string
func SummaryString(r Report) string {
	var sb strings.Builder
	WriteSummary(&sb, r)
	return sb.String()
}
