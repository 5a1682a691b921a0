package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGather_PreservesOrder(t *testing.T) {
	// Given: jobs where earlier items finish last
	items := []int{0, 1, 2, 3, 4, 5}
	fn := func(_ context.Context, i int) (int, error) {
		time.Sleep(time.Duration(len(items)-i) * time.Millisecond)
		return i * 10, nil
	}

	// When: gathering with several workers
	got, err := gather(context.Background(), 4, items, fn)

	// Then: results follow item order, not completion order
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50}, got)
}

func TestGather_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)
	fn := func(_ context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	}

	_, err := gather(context.Background(), 3, items, fn)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestGather_FirstErrorFails(t *testing.T) {
	boom := errors.New("boom")
	fn := func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	}

	got, err := gather(context.Background(), 1, []int{0, 1, 2, 3}, fn)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestGather_Empty(t *testing.T) {
	got, err := gather(context.Background(), 2, []string(nil), func(context.Context, string) (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGather_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gather(ctx, 1, []int{1, 2}, func(context.Context, int) (int, error) {
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
