// Package scheduler provides the idle-time scheduling primitive that drives
// the renderer's work loop.
//
// A Scheduler runs registered tasks at its next idle opportunity and hands
// each task a Deadline describing how much time is left in the current
// slice. Registrations are one-shot; a task that wants to run again
// registers itself again.
//
// Implementations:
//   - Loop runs tasks on a single goroutine at a fixed tick with a frame budget.
//   - Manual runs tasks only when told to, with caller supplied deadlines.
package scheduler

import "time"

// Deadline reports how much time remains before the current slice must
// yield back to the host.
type Deadline interface {
	TimeRemaining() time.Duration
}

// DeadlineFunc adapts a function to Deadline.
type DeadlineFunc func() time.Duration

// TimeRemaining implements Deadline.
func (f DeadlineFunc) TimeRemaining() time.Duration { return f() }

// Task is a unit of idle work.
type Task func(d Deadline)

// Scheduler registers tasks for the next idle opportunity.
type Scheduler interface {
	RequestIdle(task Task)
}

// Fixed returns a deadline that always reports d.
func Fixed(d time.Duration) Deadline {
	return DeadlineFunc(func() time.Duration { return d })
}

// Units returns a deadline that reports plenty of time for its first n
// queries and zero afterwards. The renderer queries once per unit, so
// Units(n) lets exactly n units run in a slice.
func Units(n int) Deadline {
	left := n
	return DeadlineFunc(func() time.Duration {
		if left <= 0 {
			return 0
		}
		left--
		return time.Hour
	})
}

// Until returns a deadline that expires at end, measured with now.
func Until(end time.Time, now func() time.Time) Deadline {
	return DeadlineFunc(func() time.Duration {
		if rem := end.Sub(now()); rem > 0 {
			return rem
		}
		return 0
	})
}

// Manual is a Scheduler driven explicitly by the caller.
type Manual struct {
	pending []Task
}

// NewManual creates a manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestIdle implements Scheduler.
func (m *Manual) RequestIdle(task Task) {
	m.pending = append(m.pending, task)
}

// Pending returns the number of registered tasks.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// RunIdle runs the tasks registered before the call with deadline d and
// returns how many ran. Tasks registered while running wait for the next
// call.
func (m *Manual) RunIdle(d Deadline) int {
	tasks := m.pending
	m.pending = nil
	for _, task := range tasks {
		task(d)
	}
	return len(tasks)
}
