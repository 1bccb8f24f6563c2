package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/quantfoundry/stagetrader/core"
)

// defaultHeaderMap defines the standard CSV column mapping used when a file
// carries no header row.
var defaultHeaderMap = map[string]int{
	"date": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5,
}

// CSVFeed serves bars from a directory of per-ticker CSV files named
// <ticker>.csv. An optional markets.csv file (ticker,market per line) assigns
// tickers to markets; without it every market lists the full directory.
type CSVFeed struct {
	dir     string
	markets map[string]Market
	log     core.Logger
}

// NewCSVFeed creates a CSV feed over the given directory
func NewCSVFeed(dir string, log core.Logger) (*CSVFeed, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("csv feed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csv feed: %s is not a directory", dir)
	}

	feed := &CSVFeed{dir: dir, markets: make(map[string]Market), log: log}
	if err := feed.loadMarketMap(); err != nil {
		return nil, err
	}
	return feed, nil
}

// loadMarketMap reads the optional ticker-to-market mapping
func (f *CSVFeed) loadMarketMap() error {
	path := filepath.Join(f.dir, "markets.csv")
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv feed: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return fmt.Errorf("csv feed: parsing %s: %w", path, err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		f.markets[strings.TrimSpace(row[0])] = Market(strings.ToUpper(strings.TrimSpace(row[1])))
	}
	return nil
}

// ListTickers implements TickerLister. The listing is sorted so downstream
// iteration order is deterministic.
func (f *CSVFeed) ListTickers(market Market) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("csv feed: %w", err)
	}

	tickers := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || name == "markets.csv" {
			return "", false
		}
		return strings.TrimSuffix(name, ".csv"), true
	})

	if market != MarketAll && len(f.markets) > 0 {
		tickers = lo.Filter(tickers, func(t string, _ int) bool {
			return f.markets[t] == market
		})
	}

	sort.Strings(tickers)
	return tickers, nil
}

// LoadBars implements BarProvider. Bars outside [start, end] are dropped;
// the returned series is normalized (sorted, deduplicated, validated).
func (f *CSVFeed) LoadBars(ctx context.Context, ticker string, start, end time.Time) ([]core.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(f.dir, ticker+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv feed: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv feed: parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrInsufficientData
	}

	headerMap, rows := resolveHeader(rows)

	bars := make([]core.Bar, 0, len(rows))
	for _, row := range rows {
		bar, err := parseBar(ticker, row, headerMap)
		if err != nil {
			return nil, err
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}

	return core.NormalizeBars(bars)
}

// resolveHeader detects a header row and builds the column mapping
func resolveHeader(rows [][]string) (map[string]int, [][]string) {
	first := rows[0]
	if _, err := strconv.ParseFloat(first[len(first)-1], 64); err == nil {
		return defaultHeaderMap, rows
	}

	headerMap := make(map[string]int, len(first))
	for i, name := range first {
		headerMap[strings.ToLower(strings.TrimSpace(name))] = i
	}
	// time is accepted as an alias for date
	if _, ok := headerMap["date"]; !ok {
		if i, ok := headerMap["time"]; ok {
			headerMap["date"] = i
		}
	}
	return headerMap, rows[1:]
}

// parseBar converts one CSV row to a bar. Dates parse as 2006-01-02 or as
// unix seconds.
func parseBar(ticker string, row []string, headerMap map[string]int) (core.Bar, error) {
	get := func(col string) (float64, error) {
		idx, ok := headerMap[col]
		if !ok || idx >= len(row) {
			return 0, fmt.Errorf("%w: missing column %q", core.ErrInvalidInput, col)
		}
		return strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	}

	dateIdx, ok := headerMap["date"]
	if !ok || dateIdx >= len(row) {
		return core.Bar{}, fmt.Errorf("%w: missing date column", core.ErrInvalidInput)
	}
	raw := strings.TrimSpace(row[dateIdx])

	var date time.Time
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		date = time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
	} else {
		parsed, err := time.Parse(core.DateLayout, raw)
		if err != nil {
			return core.Bar{}, fmt.Errorf("%w: unparsable date %q", core.ErrInvalidInput, raw)
		}
		date = parsed
	}

	bar := core.Bar{Ticker: ticker, Date: date}
	var err error
	if bar.Open, err = get("open"); err != nil {
		return core.Bar{}, err
	}
	if bar.High, err = get("high"); err != nil {
		return core.Bar{}, err
	}
	if bar.Low, err = get("low"); err != nil {
		return core.Bar{}, err
	}
	if bar.Close, err = get("close"); err != nil {
		return core.Bar{}, err
	}
	if bar.Volume, err = get("volume"); err != nil {
		return core.Bar{}, err
	}
	return bar, nil
}
