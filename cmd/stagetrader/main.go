package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfoundry/stagetrader"
	"github.com/quantfoundry/stagetrader/backtest"
	"github.com/quantfoundry/stagetrader/cache"
	"github.com/quantfoundry/stagetrader/config"
	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/feed"
	"github.com/quantfoundry/stagetrader/indicator"
	"github.com/quantfoundry/stagetrader/storage"
)

// Command line flags
var (
	configPath string
	dataDir    string
	market     string
	startDate  string
	endDate    string
	tickers    string
	ledgerDB   string
	outDir     string
	noProgress bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "stagetrader",
		Short:   "Stage-based market-wide backtesting engine",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildConvertCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a ticker universe",
		RunE:  runBacktest,
	}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (YAML)")
	runCmd.Flags().StringVarP(&dataDir, "data", "d", "", "Directory of per-ticker CSV files")
	runCmd.Flags().StringVarP(&market, "market", "m", "ALL", "Market to scan (KOSPI, KOSDAQ, ALL)")
	runCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2020-01-02)")
	runCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2023-12-28)")
	runCmd.Flags().StringVarP(&tickers, "tickers", "t", "", "Comma-separated ticker list (overrides market listing)")
	runCmd.Flags().StringVar(&ledgerDB, "ledger", "", "Persist trades and snapshots to this BuntDB file")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the loading progress bar")

	runCmd.MarkFlagRequired("data")
	runCmd.MarkFlagRequired("start")
	runCmd.MarkFlagRequired("end")

	return runCmd
}

func buildConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Validate a CSV data directory and optionally rewrite normalized files",
		RunE:  runConvert,
	}

	convertCmd.Flags().StringVarP(&dataDir, "data", "d", "", "Directory of per-ticker CSV files")
	convertCmd.Flags().StringVarP(&outDir, "out", "o", "", "Write normalized CSV files to this directory")
	convertCmd.MarkFlagRequired("data")

	return convertCmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := stagetrader.DefaultLog

	csvFeed, err := feed.NewCSVFeed(dataDir, log)
	if err != nil {
		return err
	}
	universe, err := csvFeed.ListTickers(feed.MarketAll)
	if err != nil {
		return err
	}
	if len(universe) == 0 {
		return fmt.Errorf("no CSV files found in %s", dataDir)
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}

	wide := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	var bad int
	for _, ticker := range universe {
		bars, err := csvFeed.LoadBars(cmd.Context(), ticker, wide, time.Now())
		if err != nil {
			bad++
			log.WithField("ticker", ticker).WithError(err).Warn("invalid data file")
			continue
		}
		log.WithFields(map[string]any{
			"ticker": ticker,
			"bars":   len(bars),
			"from":   bars[0].Date.Format(core.DateLayout),
			"to":     bars[len(bars)-1].Date.Format(core.DateLayout),
		}).Info("validated")

		if outDir != "" {
			if err := writeNormalized(ticker, bars); err != nil {
				return err
			}
		}
	}

	log.WithFields(map[string]any{"tickers": len(universe), "invalid": bad}).
		Info("conversion complete")
	if bad > 0 {
		return fmt.Errorf("%d of %d data files failed validation", bad, len(universe))
	}
	return nil
}

// writeNormalized rewrites one ticker's bars as a headered, sorted CSV
func writeNormalized(ticker string, bars []core.Bar) error {
	file, err := os.Create(filepath.Join(outDir, ticker+".csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, bar := range bars {
		record := []string{
			bar.Date.Format(core.DateLayout),
			strconv.FormatFloat(bar.Open, 'f', -1, 64),
			strconv.FormatFloat(bar.High, 'f', -1, 64),
			strconv.FormatFloat(bar.Low, 'f', -1, 64),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			strconv.FormatFloat(bar.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := stagetrader.DefaultLog

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	start, err := time.Parse(core.DateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid start date format: %w", err)
	}
	end, err := time.Parse(core.DateLayout, endDate)
	if err != nil {
		return fmt.Errorf("invalid end date format: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date precedes start date")
	}

	csvFeed, err := feed.NewCSVFeed(dataDir, log)
	if err != nil {
		return err
	}

	universe, err := resolveUniverse(csvFeed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := buildLoader(cfg, csvFeed, log)
	if err != nil {
		return err
	}
	frames, err := loader.Load(ctx, universe, start, end)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(cfg, frames, log)
	if err != nil {
		return err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	result.Summary(os.Stdout)

	if ledgerDB != "" {
		return persistLedgers(result, log)
	}
	return nil
}

// resolveUniverse expands the ticker flag or lists the market
func resolveUniverse(lister feed.TickerLister) ([]string, error) {
	if tickers != "" {
		parts := strings.Split(tickers, ",")
		universe := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				universe = append(universe, p)
			}
		}
		if len(universe) == 0 {
			return nil, fmt.Errorf("ticker list is empty")
		}
		return universe, nil
	}
	return lister.ListTickers(feed.Market(strings.ToUpper(market)))
}

// buildLoader assembles the universe loader from the configuration
func buildLoader(cfg config.Config, provider feed.BarProvider, log core.Logger) (*backtest.Loader, error) {
	timeout, err := cfg.ParseLoaderTimeout()
	if err != nil {
		return nil, err
	}

	options := []backtest.LoaderOption{
		backtest.WithWorkers(cfg.LoaderWorkers),
		backtest.WithTimeout(timeout),
		backtest.WithProgress(!noProgress),
	}
	if cfg.UseCache {
		frameCache, err := cache.New(cfg.CacheDir, log)
		if err != nil {
			return nil, err
		}
		options = append(options, backtest.WithCache(frameCache))
	}

	return backtest.NewLoader(provider, indicator.DefaultConfig(), log, options...), nil
}

// persistLedgers writes the run's trades and snapshots to the ledger database
func persistLedgers(result *backtest.Result, log core.Logger) error {
	store, err := storage.FromFile(ledgerDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := storage.SaveResultLedgers(store, result.Trades, result.Snapshots); err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"trades":    len(result.Trades),
		"snapshots": len(result.Snapshots),
		"file":      ledgerDB,
	}).Info("ledgers persisted")
	return nil
}
