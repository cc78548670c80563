package dataprocessing

import (
	"context"
	"errors"
	"sync"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishpulse/internal/shared/testutil"
)

func newTestCache(t *testing.T, size int) (*NormalizeCache, *testutil.BufferedSlogHandler) {
	t.Helper()
	n, logs := newTestNormalizer(t)
	return NewNormalizeCache(n, size), logs
}

func TestNormalizeCache_HitAndMiss(t *testing.T) {
	cache, logs := newTestCache(t, 4)
	raw := testutil.SampleTSV()

	first, hit, err := cache.GetOrNormalize(context.Background(), "a.tsv", raw)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.GetOrNormalize(context.Background(), "a.tsv", raw)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)

	assert.Len(t, logs.GetRecords(), 1, "second call must not re-parse")
}

func TestNormalizeCache_KeyedByContent(t *testing.T) {
	cache, _ := newTestCache(t, 4)

	a := testutil.NewProductionFile().Row("2021", "Mei", "Tuna", "1").TSV()
	b := testutil.NewProductionFile().Row("2021", "Mei", "Tuna", "2").TSV()

	dsA, _, err := cache.GetOrNormalize(context.Background(), "same-name.tsv", a)
	require.NoError(t, err)
	dsB, hit, err := cache.GetOrNormalize(context.Background(), "same-name.tsv", b)
	require.NoError(t, err)

	assert.False(t, hit)
	assert.NotEqual(t, dsA.Info.ContentHash, dsB.Info.ContentHash)

	got, ok := cache.Get(ContentHash(a))
	require.True(t, ok)
	assert.Same(t, dsA, got)
}

func TestNormalizeCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t, 4)
	raw := testutil.SampleTSV()

	_, _, err := cache.GetOrNormalize(context.Background(), "a", raw)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	cache.Invalidate()
	assert.Zero(t, cache.Len())

	_, hit, err := cache.GetOrNormalize(context.Background(), "a", raw)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNormalizeCache_EvictsOldest(t *testing.T) {
	cache, _ := newTestCache(t, 2)

	files := make([][]byte, 3)
	for i := range files {
		files[i] = testutil.NewProductionFile().Row("2021", "Mei", "Tuna", string(rune('1'+i))).TSV()
		_, _, err := cache.GetOrNormalize(context.Background(), "f", files[i])
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(ContentHash(files[0]))
	assert.False(t, ok)
	_, ok = cache.Get(ContentHash(files[2]))
	assert.True(t, ok)
}

func TestNormalizeCache_FailuresNotCached(t *testing.T) {
	cache, _ := newTestCache(t, 4)
	raw := []byte("a,b\n1,2\n")

	_, _, err := cache.GetOrNormalize(context.Background(), "bad", raw)
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	_, _, err = cache.GetOrNormalize(context.Background(), "bad", raw)
	requireParseError(t, err)
}

func TestNormalizeCache_Disabled(t *testing.T) {
	cache, _ := newTestCache(t, 0)

	_, _, err := cache.GetOrNormalize(context.Background(), "a", testutil.SampleTSV())
	require.NoError(t, err)
	assert.Zero(t, cache.Len())
}

func TestNormalizeCache_ConcurrentSameContent(t *testing.T) {
	cache, _ := newTestCache(t, 4)
	raw := testutil.SampleTSV()

	var wg sync.WaitGroup
	results := make([]*Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, _, err := cache.GetOrNormalize(context.Background(), "a", raw)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for _, ds := range results[1:] {
		assert.Same(t, results[0], ds)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestNormalizeCache_CancelledCaller(t *testing.T) {
	cache, _ := newTestCache(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := cache.GetOrNormalize(ctx, "a", testutil.SampleTSV())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, cache.Len())
}

func TestNormalizeCache_SharedWorkOutlivesStarter(t *testing.T) {
	n, _ := newTestNormalizer(t)
	cache := NewNormalizeCache(n, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel the first caller once normalization is under way
	var once sync.Once
	n.now = func() time.Time {
		once.Do(cancel)
		return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	}

	_, _, err := cache.GetOrNormalize(ctx, "a", testutil.SampleTSV())
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}

	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	ds, hit, err := cache.GetOrNormalize(context.Background(), "a", testutil.SampleTSV())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 6, ds.Len())
}
