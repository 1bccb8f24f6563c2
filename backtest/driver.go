package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantfoundry/stagetrader/config"
	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/indicator"
	"github.com/quantfoundry/stagetrader/portfolio"
	"github.com/quantfoundry/stagetrader/risk"
	"github.com/quantfoundry/stagetrader/signal"
)

// Engine runs the day-by-day simulation over a loaded universe. The engine
// owns the portfolio and both ledgers; everything else it touches is
// read-only, so a run is strictly sequential and deterministic.
type Engine struct {
	cfg     config.Config
	indCfg  indicator.Config
	frames  map[string]*core.Frame
	tickers []string

	gate     *risk.Gate
	executor *portfolio.Executor
	pf       *portfolio.Portfolio
	scorer   *signal.Scorer
	filter   *signal.Filter
	merge    signal.MergeStrategy

	log core.Logger
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithIndicatorConfig overrides the indicator parameter set the engine
// assumes when reading frames (slope thresholds, stop MA horizon).
func WithIndicatorConfig(cfg indicator.Config) EngineOption {
	return func(e *Engine) { e.indCfg = cfg }
}

// NewEngine validates the configuration and assembles the simulation. The
// fatal conditions — non-positive capital, negative commission or slippage —
// surface here, before any day is simulated.
func NewEngine(cfg config.Config, frames map[string]*core.Frame, log core.Logger, options ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, core.ErrEmptyUniverse
	}

	merge, err := signal.ParseMergeStrategy(cfg.ExitMergeStrategy)
	if err != nil {
		return nil, err
	}

	executor, err := portfolio.NewExecutor(cfg.SlippagePct, cfg.CommissionRate)
	if err != nil {
		return nil, err
	}

	pf, err := portfolio.New(cfg.InitialCapital, log)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(frames))
	for ticker := range frames {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	gateCfg := risk.GateConfig{
		RiskPercentage:    cfg.Risk.RiskPercentage,
		DesiredUnits:      cfg.Risk.DesiredUnitsPerSignal,
		StrengthThreshold: cfg.Risk.SignalStrengthThreshold,
		ATRMultiplier:     cfg.Risk.ATRMultiplier,
		MaxCapitalRatio:   cfg.Risk.MaxCapitalRatio,
		Limits: risk.Limits{
			Single:      cfg.Risk.SingleLimit,
			Correlated:  cfg.Risk.CorrelatedLimit,
			Diversified: cfg.Risk.DiversifiedLimit,
			Total:       cfg.Risk.TotalLimit,
		},
		RiskLimits: risk.RiskLimitConfig{
			MaxRiskPct:    cfg.Risk.MaxRiskPercentage,
			MaxSingleRisk: cfg.Risk.MaxSingleRisk,
		},
	}

	engine := &Engine{
		cfg:      cfg,
		indCfg:   indicator.DefaultConfig(),
		frames:   frames,
		tickers:  tickers,
		gate:     risk.NewGate(gateCfg, risk.NewGroups(cfg.Risk.CorrelationGroups), log),
		executor: executor,
		pf:       pf,
		merge:    merge,
		log:      log,
	}
	for _, option := range options {
		option(engine)
	}

	engine.scorer = signal.NewScorer(engine.indCfg.Slope)
	engine.filter = signal.NewFilter(signal.FilterConfig{
		MinStrength:      cfg.Filter.MinStrength,
		MaxATRPercentile: cfg.Filter.MaxATRPercentile,
		MinTrendSlope:    cfg.Filter.MinTrendSlope,
		EnableStrength:   cfg.Filter.EnableStrength,
		EnableVolatility: cfg.Filter.EnableVolatility,
		EnableTrend:      cfg.Filter.EnableTrend,
		EnableConflict:   cfg.Filter.EnableConflict,
	}, log)

	return engine, nil
}

// Portfolio exposes the engine's portfolio aggregate
func (e *Engine) Portfolio() *portfolio.Portfolio { return e.pf }

// Run simulates every trading day in the union calendar of the universe.
// Within a day the order is fixed: trailing-stop maintenance, stop triggers,
// exit signals on held positions, then the entry scan in sorted ticker order.
// Cancellation is honored between day iterations, never mid-day.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	dates := UnionDates(e.frames)
	if len(dates) == 0 {
		return nil, core.ErrEmptyUniverse
	}

	e.log.WithFields(map[string]any{
		"tickers": len(e.tickers),
		"days":    len(dates),
		"capital": e.cfg.InitialCapital,
	}).Info("starting simulation")

	for _, day := range dates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.simulateDay(day)
	}

	result := e.buildResult(dates[0], dates[len(dates)-1])
	e.log.WithFields(map[string]any{
		"final_capital": result.FinalCapital,
		"trades":        result.TotalTrades,
	}).Info("simulation complete")
	return result, nil
}

// simulateDay advances the portfolio through one trading day
func (e *Engine) simulateDay(day time.Time) {
	prices := e.pricesAt(day)

	e.updateStops(day, prices)
	e.fireStops(day, prices)
	e.emitExits(day, prices)
	e.scanEntries(day, prices)

	e.pf.TakeSnapshot(day, prices)
}

// pricesAt collects the closes of every ticker trading on the day
func (e *Engine) pricesAt(day time.Time) map[string]float64 {
	prices := make(map[string]float64)
	for _, ticker := range e.tickers {
		if close, ok := e.frames[ticker].CloseAt(day); ok {
			prices[ticker] = close
		}
	}
	return prices
}

// updateStops folds the day's price into each open position's extremes and
// recomputes its trailing stop from the day's ATR.
func (e *Engine) updateStops(day time.Time, prices map[string]float64) {
	for _, ticker := range e.pf.OpenTickers() {
		pos, _ := e.pf.Position(ticker)

		price, traded := prices[ticker]
		if traded {
			pos.UpdateExtremes(price)
		}

		frame := e.frames[ticker]
		idx := frame.IndexOf(day)
		if idx < 0 || !core.Valid(frame.ATR, idx) {
			continue
		}
		pos.StopPrice = risk.UpdateTrailingStop(
			pos.StopPrice, pos.Extreme(), frame.ATR[idx], e.cfg.Risk.ATRMultiplier, pos.Side)
	}
}

// fireStops closes every position whose stop the day's price touched.
// The fill happens at the stop price, not the close.
func (e *Engine) fireStops(day time.Time, prices map[string]float64) {
	for _, ticker := range e.pf.OpenTickers() {
		pos, _ := e.pf.Position(ticker)
		price, traded := prices[ticker]
		if !traded || !risk.CheckStopTriggered(price, pos.StopPrice, pos.Side) {
			continue
		}

		reason := fmt.Sprintf("stop_loss(%s)", pos.StopKind)
		e.sell(day, ticker, pos.Shares, pos.StopPrice, reason)
	}
}

// emitExits evaluates the three-level exit chain on every held ticker and
// closes half or all of the position on level 2 or 3.
func (e *Engine) emitExits(day time.Time, prices map[string]float64) {
	for _, ticker := range e.pf.OpenTickers() {
		pos, _ := e.pf.Position(ticker)
		frame := e.frames[ticker]
		idx := frame.IndexOf(day)
		if idx < 0 {
			continue
		}

		exit := signal.EvaluateExit(frame, idx, pos.Side, e.merge)
		if exit.Level < 2 {
			continue
		}

		shares := pos.Shares
		if exit.Ratio < 1 {
			shares = int(math.Floor(float64(pos.Shares) * exit.Ratio))
		}
		if shares == 0 {
			continue
		}
		e.sell(day, ticker, shares, prices[ticker], exit.Reason)
	}
}

// scanEntries walks the whole non-held universe in sorted ticker order,
// submitting every surviving buy signal to the risk gate.
func (e *Engine) scanEntries(day time.Time, prices map[string]float64) {
	for _, ticker := range e.tickers {
		if _, held := e.pf.Position(ticker); held {
			continue
		}
		frame := e.frames[ticker]
		idx := frame.IndexOf(day)
		if idx < 0 {
			continue
		}

		entry := signal.EntryAt(frame, idx, e.cfg.EnableEarlySignals)
		if entry.Signal <= 0 {
			// Sell-side signals never open positions: the book is long-only.
			continue
		}

		if !core.Valid(frame.ATR, idx) {
			e.log.WithFields(map[string]any{"ticker": ticker, "date": day}).
				Debug("skipping entry: ATR not warmed up")
			continue
		}

		strength := e.scorer.Score(frame, idx).Total
		exitNow := signal.EvaluateExit(frame, idx, core.SideLong, e.merge)

		verdict := e.filter.Apply(frame, idx, strength, entry.Signal, exitNow.Level)
		if !verdict.Pass {
			e.log.WithFields(map[string]any{"ticker": ticker, "date": day}).
				Debugf("entry filtered: %s", verdict.Reason())
			continue
		}

		equity := e.pf.Equity(prices)
		approval := e.gate.Evaluate(risk.Candidate{
			Ticker:   ticker,
			Action:   risk.ActionBuy,
			Strength: strength,
			Price:    prices[ticker],
			ATR:      frame.ATR[idx],
			TrendMA:  e.stopMA(frame, idx),
		}, risk.Environment{
			Balance:   equity,
			Positions: e.heldView(),
		})
		if !approval.Approved {
			e.log.WithFields(map[string]any{"ticker": ticker, "date": day, "reason": approval.Reason}).
				Debug("entry rejected by risk gate")
			continue
		}
		for _, warning := range approval.Warnings {
			e.log.WithField("ticker", ticker).Warn(warning)
		}

		e.buy(day, ticker, approval, entry, strength, frame.Stage[idx], prices[ticker])
	}
}

// buy executes an approved entry at the day's close
func (e *Engine) buy(day time.Time, ticker string, approval risk.Approval,
	entry signal.Entry, strength float64, stage int, price float64) {

	fill, err := e.executor.Execute(portfolio.Order{
		Type:   portfolio.OrderMarket,
		Ticker: ticker,
		Buy:    true,
		Shares: approval.Shares,
		Price:  price,
	})
	if err != nil {
		e.log.WithField("ticker", ticker).WithError(err).Warn("buy execution failed")
		return
	}

	err = e.pf.Add(portfolio.Entry{
		Date:     day,
		Ticker:   ticker,
		Fill:     fill,
		Shares:   approval.Shares,
		Units:    approval.Units,
		Stop:     approval.StopPrice,
		StopKind: approval.StopKind,
		Strength: strength,
		Stage:    stage,
		Reason:   entry.Type.String(),
	})
	if err != nil {
		// Sizing ran on equity; cash can fall short when most of it is
		// already deployed. The gate keeps this rare, the portfolio keeps
		// it harmless.
		e.log.WithField("ticker", ticker).WithError(err).Warn("buy skipped")
	}
}

// sell executes a close at the given price
func (e *Engine) sell(day time.Time, ticker string, shares int, price float64, reason string) {
	fill, err := e.executor.Execute(portfolio.Order{
		Type:   portfolio.OrderMarket,
		Ticker: ticker,
		Buy:    false,
		Shares: shares,
		Price:  price,
	})
	if err != nil {
		e.log.WithField("ticker", ticker).WithError(err).Warn("sell execution failed")
		return
	}
	if _, err := e.pf.Close(day, ticker, shares, fill, reason); err != nil {
		e.log.WithField("ticker", ticker).WithError(err).Error("close failed")
	}
}

// stopMA reads the configured stop moving average from the frame
func (e *Engine) stopMA(frame *core.Frame, idx int) float64 {
	switch e.cfg.Risk.StopMA {
	case "EMA_short":
		return frame.EMAShort[idx]
	case "EMA_mid":
		return frame.EMAMid[idx]
	default:
		return frame.EMALong[idx]
	}
}

// heldView projects the open positions into the gate's view
func (e *Engine) heldView() map[string]risk.HeldPosition {
	view := make(map[string]risk.HeldPosition, e.pf.OpenCount())
	for _, ticker := range e.pf.OpenTickers() {
		pos, _ := e.pf.Position(ticker)
		view[ticker] = risk.HeldPosition{
			Units:  pos.Units,
			Shares: pos.Shares,
			Entry:  pos.EntryPrice,
			Stop:   pos.StopPrice,
		}
	}
	return view
}
