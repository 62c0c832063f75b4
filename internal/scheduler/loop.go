package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned by Call after the loop has stopped.
var ErrStopped = errors.New("scheduler loop stopped")

const settlePoll = time.Millisecond

// Loop runs posted tasks sequentially.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	pending atomic.Int64
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.Logger
}

// New creates a loop. Nothing runs until Run is called.
func New(log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}
}

// Context is cancelled when the loop stops. Awaited work receives it.
func (l *Loop) Context() context.Context {
	return l.ctx
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler loop already running")
	}
	defer close(l.done)
	defer l.cancel()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, task := range batch {
			l.exec(task)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Post schedules fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.pending.Add(1)
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to finish.
// It must not be called from a task already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// After posts fn once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	l.pending.Add(1)
	timer := time.NewTimer(d)
	go func() {
		defer l.pending.Add(-1)
		select {
		case <-timer.C:
			l.Post(fn)
		case <-l.ctx.Done():
			timer.Stop()
		}
	}()
}

// Every posts fn on each tick until the loop stops. Ticks are not counted by
// Settle.
func (l *Loop) Every(d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(fn)
			case <-l.ctx.Done():
				return
			}
		}
	}()
}

// Settle blocks until no task is queued and no awaited work is in flight.
func (l *Loop) Settle(ctx context.Context) error {
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for l.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrStopped
		case <-ticker.C:
		}
	}
	return nil
}

// Pending returns the number of queued tasks plus in-flight awaited work.
func (l *Loop) Pending() int64 {
	return l.pending.Load()
}

func (l *Loop) exec(task func()) {
	defer l.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Scheduler task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task()
}

// Await runs work off the loop and posts then with its result back onto it.
// work receives the loop's context, cancelled only when the loop stops.
func Await[T any](l *Loop, work func(context.Context) T, then func(T)) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Add(-1)
		result := work(l.ctx)
		l.Post(func() { then(result) })
	}()
}
