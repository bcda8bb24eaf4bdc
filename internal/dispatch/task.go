package dispatch

import (
	"sync"
	"sync/atomic"
	"time"
)

type Task func(tc *TaskContext)

// TaskContext identifies a submitted task. It is handed to the task when it
// runs and returned to the submitter, who may cancel the task until it starts.
type TaskContext struct {
	id     uint64
	queue  *Queue
	bundle *Bundle

	cancelled atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (tc *TaskContext) ID() uint64 {
	return tc.id
}

func (tc *TaskContext) Queue() *Queue {
	return tc.queue
}

// Bundle returns the bundle passed with WithBundle, or nil.
func (tc *TaskContext) Bundle() *Bundle {
	return tc.bundle
}

// Cancel prevents the task from running if it has not started yet.
func (tc *TaskContext) Cancel() {
	tc.cancelled.Store(true)
}

func (tc *TaskContext) Cancelled() bool {
	return tc.cancelled.Load()
}

// Done is closed once the task has run, was skipped after Cancel, or was
// dropped by a queue shutdown.
func (tc *TaskContext) Done() <-chan struct{} {
	return tc.done
}

func (tc *TaskContext) finish() {
	tc.closeOnce.Do(func() { close(tc.done) })
}

type taskOptions struct {
	delay  time.Duration
	bundle *Bundle
}

type Option func(*taskOptions)

func WithDelay(d time.Duration) Option {
	return func(o *taskOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

func WithBundle(b *Bundle) Option {
	return func(o *taskOptions) {
		o.bundle = b
	}
}

type item struct {
	id    uint64
	runAt time.Time
	task  Task
	tc    *TaskContext

	idle  bool
	reuse bool
	delay time.Duration
}

func lessTask(a, b *item) bool {
	if !a.runAt.Equal(b.runAt) {
		return a.runAt.Before(b.runAt)
	}
	return a.id < b.id
}

func lessIdle(a, b *item) bool {
	if a.delay != b.delay {
		return a.delay < b.delay
	}
	return a.id < b.id
}
