package scorecache_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/internal/scorecache"
)

// writeFixture writes a dense generated score to dir and returns its path.
func writeFixture(t *testing.T, dir, name string, measures int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, score.SaveJSON(path, score.GenerateDense(measures)))

	return path
}

// countingLoader wraps score.Load and counts parse calls.
func countingLoader(calls *atomic.Int64) scorecache.LoadFunc {
	return func(path string) (*score.Score, error) {
		calls.Add(1)

		return score.Load(path)
	}
}

func TestCache_LoadParsesOnceAndCaches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "a.json", 1)

	var calls atomic.Int64

	c := scorecache.NewWithLoader(4, countingLoader(&calls))

	first, err := c.Load(path)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.Load(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_ChangedFileIsReparsed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "a.json", 1)

	var calls atomic.Int64

	c := scorecache.NewWithLoader(4, countingLoader(&calls))

	first, err := c.Load(path)
	require.NoError(t, err)

	// Rewrite with more measures and force a distinct mtime.
	require.NoError(t, score.SaveJSON(path, score.GenerateDense(2)))
	bumped := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, bumped, bumped))

	second, err := c.Load(path)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Greater(t, second.NoteCount(), first.NoteCount())
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pathA := writeFixture(t, dir, "a.json", 1)
	pathB := writeFixture(t, dir, "b.json", 1)
	pathC := writeFixture(t, dir, "c.json", 1)

	var calls atomic.Int64

	c := scorecache.NewWithLoader(2, countingLoader(&calls))

	_, err := c.Load(pathA)
	require.NoError(t, err)
	_, err = c.Load(pathB)
	require.NoError(t, err)

	// Touch A so B becomes least recently used.
	_, err = c.Load(pathA)
	require.NoError(t, err)

	// C evicts B.
	_, err = c.Load(pathC)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)

	// B was evicted: loading it parses again.
	before := calls.Load()
	_, err = c.Load(pathB)
	require.NoError(t, err)
	assert.Equal(t, before+1, calls.Load())

	// A survived the eviction.
	before = calls.Load()
	_, err = c.Load(pathA)
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load())
}

func TestCache_ParseErrorNotCached(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not a score"), 0o600))

	errParse := errors.New("parse failed")

	var calls atomic.Int64

	c := scorecache.NewWithLoader(4, func(string) (*score.Score, error) {
		calls.Add(1)

		return nil, errParse
	})

	_, err := c.Load(path)
	require.ErrorIs(t, err, errParse)

	_, err = c.Load(path)
	require.ErrorIs(t, err, errParse)

	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCache_MissingFile_ReturnsStatError(t *testing.T) {
	t.Parallel()

	c := scorecache.New(4)

	_, err := c.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat score")
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "a.json", 1)

	var calls atomic.Int64

	c := scorecache.NewWithLoader(4, countingLoader(&calls))

	_, err := c.Load(path)
	require.NoError(t, err)

	c.Invalidate(path)
	assert.Equal(t, 0, c.Len())

	_, err = c.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pathA := writeFixture(t, dir, "a.json", 1)
	pathB := writeFixture(t, dir, "b.json", 1)

	c := scorecache.New(4)

	_, err := c.Load(pathA)
	require.NoError(t, err)
	_, err = c.Load(pathB)
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestStats_HitRate(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, scorecache.Stats{}.HitRate(), 0.001)
	assert.InDelta(t, 0.75, scorecache.Stats{Hits: 3, Misses: 1}.HitRate(), 0.001)
}
