// Package cache persists computed indicator frames between runs so repeated
// backtests over the same window skip the indicator pipeline.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfoundry/stagetrader/core"
)

// FrameCache is a filesystem-backed store keyed by (ticker, start, end).
// Writes are atomic (write to a temp file, then rename); readers tolerate
// missing or unreadable entries by reporting a miss.
type FrameCache struct {
	dir string
	log core.Logger
}

// New creates the cache directory if needed and returns the cache
func New(dir string, log core.Logger) (*FrameCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &FrameCache{dir: dir, log: log}, nil
}

// key builds the exact-match file name of one cache entry
func (c *FrameCache) key(ticker string, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.msgpack",
		ticker, start.Format(core.DateLayout), end.Format(core.DateLayout))
	return filepath.Join(c.dir, name)
}

// Get loads a cached frame, reporting a miss for absent or corrupt entries
func (c *FrameCache) Get(ticker string, start, end time.Time) (*core.Frame, bool) {
	data, err := os.ReadFile(c.key(ticker, start, end))
	if err != nil {
		return nil, false
	}

	var frame core.Frame
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		if c.log != nil {
			c.log.WithField("ticker", ticker).WithError(err).Warn("dropping corrupt cache entry")
		}
		_ = os.Remove(c.key(ticker, start, end))
		return nil, false
	}
	if frame.Ticker != ticker {
		return nil, false
	}
	return &frame, true
}

// Put stores a frame atomically: concurrent writers race on the rename, and
// either winner leaves a complete entry.
func (c *FrameCache) Put(frame *core.Frame, start, end time.Time) error {
	data, err := msgpack.Marshal(frame)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", frame.Ticker, err)
	}

	final := c.key(frame.Ticker, start, end)
	tmp, err := os.CreateTemp(c.dir, frame.Ticker+"-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: writing %s: %w", frame.Ticker, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
