package analytics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/quantfoundry/stagetrader/portfolio"
)

// CrossTab counts closed trades by entry stage and exit reason family. The
// reason family is the string before the first parenthesis, so
// "exit_signal(sequential:upper:hist_peakout)" and
// "exit_signal(sequential:lower:signal_cross)" land in the same row.
type CrossTab struct {
	Reasons []string
	Stages  []int
	Counts  map[string]map[int]int
}

// BuildCrossTab tabulates the sell side of the trade ledger
func BuildCrossTab(trades []portfolio.Trade) CrossTab {
	ct := CrossTab{Counts: make(map[string]map[int]int)}
	stages := make(map[int]struct{})

	for _, t := range trades {
		if t.Action != "sell" {
			continue
		}
		reason := reasonFamily(t.Reason)
		if ct.Counts[reason] == nil {
			ct.Counts[reason] = make(map[int]int)
		}
		ct.Counts[reason][t.EntryStage]++
		stages[t.EntryStage] = struct{}{}
	}

	for reason := range ct.Counts {
		ct.Reasons = append(ct.Reasons, reason)
	}
	sort.Strings(ct.Reasons)
	for stage := range stages {
		ct.Stages = append(ct.Stages, stage)
	}
	sort.Ints(ct.Stages)
	return ct
}

func reasonFamily(reason string) string {
	if i := strings.IndexByte(reason, '('); i > 0 {
		return reason[:i]
	}
	return reason
}

// WriteCrossTab renders the stage-by-exit-reason table
func WriteCrossTab(w io.Writer, trades []portfolio.Trade) {
	ct := BuildCrossTab(trades)
	if len(ct.Reasons) == 0 {
		return
	}

	header := []string{"Exit Reason"}
	for _, stage := range ct.Stages {
		header = append(header, fmt.Sprintf("Stage %d", stage))
	}
	header = append(header, "Total")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for _, reason := range ct.Reasons {
		row := []string{reason}
		total := 0
		for _, stage := range ct.Stages {
			n := ct.Counts[reason][stage]
			total += n
			row = append(row, strconv.Itoa(n))
		}
		row = append(row, strconv.Itoa(total))
		table.Append(row)
	}
	table.Render()
}
