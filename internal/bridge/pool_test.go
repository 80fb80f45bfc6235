package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolReturnsResult(t *testing.T) {
	p := NewPool(2, func(n int) (int, error) { return n * 2, nil })

	got, err := p.Submit(21).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestPoolReturnsError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool(1, func(string) (string, error) { return "", boom })

	_, err := p.Submit("x").Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPoolRecoversPanics(t *testing.T) {
	p := NewPool(1, func(int) (int, error) { panic("capture exploded") })

	_, err := p.Submit(1).Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture exploded")
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, peak int32
	release := make(chan struct{})
	p := NewPool(2, func(int) (int, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
		return 0, nil
	})

	futures := make([]*Future[int], 6)
	for i := range futures {
		futures[i] = p.Submit(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 2 }, time.Second, 5*time.Millisecond)
	close(release)

	for _, f := range futures {
		_, err := f.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
}

func TestWaitAbandonsWithoutCancellingJob(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished sync.WaitGroup
	finished.Add(1)

	p := NewPool(1, func(int) (string, error) {
		close(started)
		<-release
		finished.Done()
		return "done", nil
	})
	f := p.Submit(1)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	finished.Wait()

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	select {
	case <-f.Done():
	default:
		t.Fatal("future should be resolved")
	}
}
