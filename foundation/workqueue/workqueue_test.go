package workqueue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/ledger/foundation/workqueue"
)

func TestDo_ReturnsJobError(t *testing.T) {
	q := workqueue.New(2, 4, time.Second)
	defer q.Shutdown()

	errBoom := errors.New("boom")
	err := q.Do(context.Background(), func(ctx context.Context) error { return errBoom })
	require.ErrorIs(t, err, errBoom)

	var ran bool
	err = q.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestDo_SingleWorkerKeepsOrder(t *testing.T) {
	q := workqueue.New(1, 16, time.Second)
	defer q.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()

		require.Eventually(t, func() bool { return q.Len() == i+1 }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDo_TimeoutWhenFull(t *testing.T) {
	q := workqueue.New(1, 0, 20*time.Millisecond)
	defer q.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})

	go q.Do(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ran atomic.Bool
	err := q.Do(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.ErrorIs(t, err, workqueue.ErrQueueTimeout)

	close(release)
	require.False(t, ran.Load())
}

func TestDo_CanceledWhileWaiting(t *testing.T) {
	q := workqueue.New(1, 1, time.Second)
	defer q.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})

	go q.Do(context.Background(), func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Bool
	result := make(chan error, 1)
	go func() {
		result <- q.Do(ctx, func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	cancel()
	close(release)

	require.ErrorIs(t, <-result, context.Canceled)
	require.False(t, ran.Load())
}

func TestShutdown(t *testing.T) {
	q := workqueue.New(2, 2, time.Second)
	q.Shutdown()
	q.Shutdown()

	err := q.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, workqueue.ErrQueueClosed)
}
