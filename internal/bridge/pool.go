// Package bridge runs blocking work off the caller's goroutine and hands
// back a Future for the result.
package bridge

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many jobs run at once. Each submitted request gets its own
// job; nothing is batched or coalesced.
type Pool[Req, Res any] struct {
	sem *semaphore.Weighted
	run func(Req) (Res, error)
}

// NewPool creates a pool running at most workers jobs concurrently.
func NewPool[Req, Res any](workers int64, run func(Req) (Res, error)) *Pool[Req, Res] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[Req, Res]{
		sem: semaphore.NewWeighted(workers),
		run: run,
	}
}

// Submit schedules req and returns immediately. The job runs to completion
// even if nobody waits for it.
func (p *Pool[Req, Res]) Submit(req Req) *Future[Res] {
	f := newFuture[Res]()
	go func() {
		// Background context: a dispatched job is never cancelled.
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			var zero Res
			f.resolve(zero, err)
			return
		}
		defer p.sem.Release(1)
		f.resolve(p.call(req))
	}()
	return f
}

// call converts a panic in run into an error so a failing job cannot take
// down the host process.
func (p *Pool[Req, Res]) call(req Req) (res Res, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithComponent("bridge").Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Job panicked")
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return p.run(req)
}

// Future is the pending result of a submitted job.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job finishes or ctx ends. Ending ctx only abandons
// the wait; the job keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
