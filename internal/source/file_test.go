package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "DAX.I": {
    "60": [
      {"time": "2025-06-10T09:00:00Z", "open": 10, "high": 12, "low": 9, "close": 11},
      {"time": "2025-06-10T11:00:00Z", "open": 12, "high": 14, "low": 11, "close": 13},
      {"time": "2025-06-10T10:00:00Z", "open": 11, "high": 13, "low": 10, "close": 12}
    ]
  }
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileBars(t *testing.T) {
	f, err := NewFile(writeSnapshot(t, sampleSnapshot), zerolog.Nop())
	require.NoError(t, err)

	asOf := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	bars, err := f.Bars(context.Background(), "DAX.I", 60, 2, asOf)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Out-of-order records come back newest first.
	assert.Equal(t, 11, bars[0].Time.Hour())
	assert.Equal(t, 10, bars[1].Time.Hour())
}

func TestFileBarsRespectsAsOf(t *testing.T) {
	f, err := NewFile(writeSnapshot(t, sampleSnapshot), zerolog.Nop())
	require.NoError(t, err)

	asOf := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	bars, err := f.Bars(context.Background(), "DAX.I", 60, 5, asOf)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10, bars[0].Time.Hour())
}

func TestFileBarsUnknownSymbol(t *testing.T) {
	f, err := NewFile(writeSnapshot(t, sampleSnapshot), zerolog.Nop())
	require.NoError(t, err)

	_, err = f.Bars(context.Background(), "NOPE.I", 60, 1, time.Now())
	require.Error(t, err)

	_, err = f.Bars(context.Background(), "DAX.I", 30, 1, time.Now())
	require.Error(t, err)
}

func TestFileRejectsBadSnapshot(t *testing.T) {
	_, err := NewFile(writeSnapshot(t, "not json"), zerolog.Nop())
	require.Error(t, err)
}

func TestCachingServesRepeatFetches(t *testing.T) {
	f, err := NewFile(writeSnapshot(t, sampleSnapshot), zerolog.Nop())
	require.NoError(t, err)
	c := NewCaching(f)

	asOf := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	first, err := c.Bars(context.Background(), "DAX.I", 60, 3, asOf)
	require.NoError(t, err)

	again, err := c.Bars(context.Background(), "DAX.I", 60, 3, asOf)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A smaller request is served from the cached series.
	two, err := c.Bars(context.Background(), "DAX.I", 60, 2, asOf)
	require.NoError(t, err)
	assert.Equal(t, first[:2], two)
}
