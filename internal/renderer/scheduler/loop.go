package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a running loop.
	ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")

	// ErrLoopNotRunning is returned when work is posted to a stopped loop.
	ErrLoopNotRunning = errors.New("scheduler: loop is not running")

	// ErrLoopStopped is returned when Run is called on a loop that already
	// ran. A Loop runs once.
	ErrLoopStopped = errors.New("scheduler: loop already stopped")
)

// Default loop timings.
const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultFrameBudget  = 8 * time.Millisecond
)

// Loop is a Scheduler that owns a single goroutine. Every tick it runs the
// registered idle tasks with a deadline of one frame budget; functions
// passed to Post run on the same goroutine between slices.
type Loop struct {
	mu   sync.Mutex
	idle []Task

	posted chan func()
	done   chan struct{}

	tick        time.Duration
	frameBudget atomic.Int64
	now         func() time.Time

	running atomic.Bool
	slices  atomic.Uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTickInterval sets how often idle tasks run.
func WithTickInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithFrameBudget sets the time granted to each idle slice.
func WithFrameBudget(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.frameBudget.Store(int64(d))
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		posted: make(chan func(), 64),
		done:   make(chan struct{}),
		tick:   DefaultTickInterval,
		now:    time.Now,
	}
	l.frameBudget.Store(int64(DefaultFrameBudget))
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RequestIdle implements Scheduler.
func (l *Loop) RequestIdle(task Task) {
	l.mu.Lock()
	l.idle = append(l.idle, task)
	l.mu.Unlock()
}

// SetFrameBudget changes the budget of subsequent slices.
func (l *Loop) SetFrameBudget(d time.Duration) {
	if d > 0 {
		l.frameBudget.Store(int64(d))
	}
}

// FrameBudget returns the current slice budget.
func (l *Loop) FrameBudget() time.Duration {
	return time.Duration(l.frameBudget.Load())
}

// Slices returns the number of idle slices run so far.
func (l *Loop) Slices() uint64 {
	return l.slices.Load()
}

// IsRunning returns true while Run is executing.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Post schedules fn to run on the loop goroutine. It blocks while the
// queue is full and fails once the loop has stopped.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrLoopNotRunning
	default:
	}
	select {
	case l.posted <- fn:
		return nil
	case <-l.done:
		return ErrLoopNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the loop until ctx is cancelled. A panic in a task or posted
// function propagates out of Run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	select {
	case <-l.done:
		l.running.Store(false)
		return ErrLoopStopped
	default:
	}
	defer func() {
		l.running.Store(false)
		close(l.done)
	}()

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.posted:
			fn()
		case <-ticker.C:
			l.RunSlice()
		}
	}
}

// RunSlice runs the currently registered idle tasks once with a deadline
// of one frame budget from now. Run calls it on every tick; it is exported
// for hosts that own their own loop.
func (l *Loop) RunSlice() {
	l.mu.Lock()
	tasks := l.idle
	l.idle = nil
	l.mu.Unlock()

	if len(tasks) == 0 {
		return
	}
	l.slices.Add(1)
	d := Until(l.now().Add(l.FrameBudget()), l.now)
	for _, task := range tasks {
		task(d)
	}
}
