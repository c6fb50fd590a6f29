package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrLoopClosed is returned for work submitted after the loop stopped.
var ErrLoopClosed = errors.New("server: event loop closed")

// DefaultQueueSize is the work queue capacity used when none is given.
const DefaultQueueSize = 256

// Loop runs functions one at a time on a dedicated goroutine.
type Loop struct {
	work   chan func()
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewLoop starts a loop with the given queue capacity.
func NewLoop(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		work:   make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.work:
			l.exec(fn)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in event loop",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post queues fn without waiting for it. It reports false if the loop is
// closed or the queue is full.
func (l *Loop) Post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	default:
		l.logger.Warn("event queue full, discarding work")
		return false
	}
}

// Do runs fn on the loop and returns its error. A panic in fn is returned
// as an error. Do must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}

	errc := make(chan error, 1)
	task := func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("panic in event loop",
					"panic", r,
					"stack", string(debug.Stack()))
				err = fmt.Errorf("server: panic: %v", r)
			}
			errc <- err
		}()
		err = fn()
	}

	select {
	case l.work <- task:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after the function currently running returns.
// Queued work is discarded. Close must not be called from the loop
// goroutine.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
	l.wg.Wait()
}
