package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/stagetrader/core"
)

var (
	start = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC)
)

func testFrame() *core.Frame {
	f := &core.Frame{
		Ticker:   "005930",
		Date:     []time.Time{start, start.AddDate(0, 0, 1)},
		Close:    core.Series[float64]{100, 110},
		EMAShort: core.Series[float64]{100, 105},
		Stage:    []int{0, 6},
		Metadata: map[string]core.Series[float64]{"atr_pct": {50, 60}},
	}
	return f
}

func TestCache_RoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, c.Put(testFrame(), start, end))

	got, ok := c.Get("005930", start, end)
	require.True(t, ok)
	require.Equal(t, "005930", got.Ticker)
	require.Equal(t, core.Series[float64]{100, 110}, got.Close)
	require.Equal(t, []int{0, 6}, got.Stage)
	require.Equal(t, core.Series[float64]{50, 60}, got.Metadata["atr_pct"])
}

func TestCache_MissOnAbsentEntry(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	_, ok := c.Get("005930", start, end)
	require.False(t, ok)
}

func TestCache_KeyIncludesWindow(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, c.Put(testFrame(), start, end))

	// A different window is a different entry.
	_, ok := c.Get("005930", start, end.AddDate(0, 0, 1))
	require.False(t, ok)
}

func TestCache_CorruptEntryIsDroppedAsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put(testFrame(), start, end))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, ok := c.Get("005930", start, end)
	require.False(t, ok)

	// The corrupt file is removed so the next Put starts clean.
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestCache_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := New(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
