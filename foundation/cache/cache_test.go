package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/ledger/foundation/cache"
)

func TestCounts(t *testing.T) {
	ctx := context.Background()
	c := cache.New(16, time.Minute)

	var loads int
	load := func(ctx context.Context) (uint64, error) {
		loads++
		return uint64(loads * 10), nil
	}

	v, err := c.Count(ctx, "names", load)
	require.NoError(t, err)
	require.Equal(t, uint64(10), v)

	v, err = c.Count(ctx, "names", load)
	require.NoError(t, err)
	require.Equal(t, uint64(10), v)
	require.Equal(t, 1, loads)

	c.Invalidate("names", "unknown")

	v, err = c.Count(ctx, "names", load)
	require.NoError(t, err)
	require.Equal(t, uint64(20), v)
	require.Equal(t, 2, loads)
}

func TestCounts_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := cache.New(16, time.Minute)

	errBoom := errors.New("boom")
	_, err := c.Count(ctx, "blocks", func(ctx context.Context) (uint64, error) { return 0, errBoom })
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, c.Len())
}

func TestCounts_Expires(t *testing.T) {
	ctx := context.Background()
	c := cache.New(16, 20*time.Millisecond)

	var loads int
	load := func(ctx context.Context) (uint64, error) {
		loads++
		return 1, nil
	}

	_, err := c.Count(ctx, "supply", load)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	_, err = c.Count(ctx, "supply", load)
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}
