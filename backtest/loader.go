// Package backtest wires the indicator pipeline, signal generation, risk
// gating and portfolio accounting into the day-by-day simulation driver.
package backtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/schollz/progressbar/v3"

	"github.com/quantfoundry/stagetrader/cache"
	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/feed"
	"github.com/quantfoundry/stagetrader/indicator"
	"github.com/quantfoundry/stagetrader/stage"
)

const loadAttempts = 3

// Loader builds indicator frames for a ticker universe with a bounded worker
// pool. Loading is the only parallel phase of a run: each ticker's frame is
// independent, and the result map is immutable once Load returns.
type Loader struct {
	provider feed.BarProvider
	cache    *cache.FrameCache
	cfg      indicator.Config
	workers  int
	timeout  time.Duration
	progress bool
	log      core.Logger
}

// LoaderOption configures the loader
type LoaderOption func(*Loader)

// WithCache attaches a frame cache
func WithCache(c *cache.FrameCache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithWorkers bounds the number of concurrent ticker loads
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithTimeout bounds the time spent on a single ticker
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithProgress toggles the terminal progress bar
func WithProgress(enabled bool) LoaderOption {
	return func(l *Loader) { l.progress = enabled }
}

// NewLoader creates a loader over the given bar provider
func NewLoader(provider feed.BarProvider, cfg indicator.Config, log core.Logger, options ...LoaderOption) *Loader {
	l := &Loader{
		provider: provider,
		cfg:      cfg,
		workers:  10,
		timeout:  30 * time.Second,
		log:      log,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Load fetches bars and computes the indicator frame for every ticker.
// A ticker that fails to load, validates badly, or lacks the warmup history
// is dropped from the universe with a warning; the run continues. Only a
// fully empty universe is an error.
func (l *Loader) Load(ctx context.Context, tickers []string, start, end time.Time) (map[string]*core.Frame, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		frames = make(map[string]*core.Frame, len(tickers))
		jobs   = make(chan string)
	)

	var bar *progressbar.ProgressBar
	if l.progress {
		bar = progressbar.Default(int64(len(tickers)), "loading universe")
	}

	for w := 0; w < l.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				frame := l.loadOne(ctx, ticker, start, end)
				if frame != nil {
					mu.Lock()
					frames[ticker] = frame
					mu.Unlock()
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	for _, ticker := range tickers {
		select {
		case jobs <- ticker:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if len(frames) == 0 {
		return nil, core.ErrEmptyUniverse
	}
	return frames, nil
}

// loadOne builds a single frame, retrying transient provider failures
func (l *Loader) loadOne(ctx context.Context, ticker string, start, end time.Time) *core.Frame {
	if l.cache != nil {
		if frame, ok := l.cache.Get(ticker, start, end); ok {
			return frame
		}
	}

	retry := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
	}

	var (
		bars []core.Bar
		err  error
	)
	for attempt := 0; attempt < loadAttempts; attempt++ {
		loadCtx, cancel := context.WithTimeout(ctx, l.timeout)
		bars, err = l.provider.LoadBars(loadCtx, ticker, start, end)
		cancel()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		time.Sleep(retry.Duration())
	}
	if err != nil {
		l.log.WithField("ticker", ticker).WithError(err).Warn("dropping ticker: load failed")
		return nil
	}

	if len(bars) < l.cfg.Warmup() {
		l.log.WithFields(map[string]any{"ticker": ticker, "bars": len(bars)}).
			Warn("dropping ticker: insufficient history")
		return nil
	}

	frame := core.NewFrame(ticker, bars)
	indicator.ComputeAll(frame, l.cfg)
	stage.Classify(frame)

	if l.cache != nil {
		if err := l.cache.Put(frame, start, end); err != nil {
			l.log.WithField("ticker", ticker).WithError(err).Warn("cache write failed")
		}
	}
	return frame
}

// UnionDates collects the sorted union of trading dates across all frames
func UnionDates(frames map[string]*core.Frame) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, frame := range frames {
		for _, d := range frame.Date {
			seen[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
