// Package eventloop runs posted closures one at a time on a single goroutine.
// Everything that touches session state is funnelled through a Loop, so the
// state itself needs no locks.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// DefaultQueueSize is the task channel capacity used when New is given 0.
const DefaultQueueSize = 1024

// Loop is a single-consumer task queue with timers driven by a clock.
type Loop struct {
	clk   clock.Clock
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// New creates a Loop. A nil clock means the wall clock.
func New(clk clock.Clock, queueSize int) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		clk:   clk,
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Clock returns the loop's clock.
func (l *Loop) Clock() clock.Clock { return l.clk }

// Now returns the clock's current time.
func (l *Loop) Now() time.Time { return l.clk.Now() }

// Post enqueues fn. It blocks while the queue is full and returns false once
// the loop has stopped, in which case fn will never run.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do posts fn and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return domain.ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have run just before the loop stopped.
		select {
		case <-finished:
			return nil
		default:
			return domain.ErrClosed
		}
	}
}

// AfterFunc runs fn on the loop once d has elapsed. Calling the returned
// cancel func from the loop guarantees fn will not run afterwards, even if
// the timer already fired and its task is queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	var cancelled atomic.Bool
	t := l.clk.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Every runs fn on the loop each period until cancelled or the loop stops.
func (l *Loop) Every(period time.Duration, fn func()) (cancel func()) {
	var cancelled atomic.Bool
	stop := make(chan struct{})
	ticker := l.clk.Ticker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !cancelled.Load() {
						fn()
					}
				})
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		cancelled.Store(true)
		once.Do(func() { close(stop) })
	}
}

// Run executes tasks until ctx is cancelled or Stop is called. Tasks still
// queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		// Stop wins over queued work.
		select {
		case <-l.done:
			return nil
		default:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stop ends Run and rejects further posts. It is safe to call more than once
// and from any goroutine, including from a task.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
