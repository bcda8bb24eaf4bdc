// Package dispatch runs tasks on named queues. A serial queue runs one task
// at a time on its own worker goroutine; a concurrent queue dequeues in the
// same order but runs tasks on goroutines bounded by a semaphore.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/tidwall/btree"
	"golang.org/x/sync/semaphore"
)

var ErrQueueDestroyed = errors.New("dispatch queue destroyed")

type Status int

const (
	StatusInit Status = iota - 1
	StatusBusy
	StatusIdle
	StatusDormant
	StatusDestroyed
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusBusy:
		return "busy"
	case StatusIdle:
		return "idle"
	case StatusDormant:
		return "dormant"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

type StatusObserver func(q *Queue, s Status)

// IdleTask runs only while the queue has no pending normal task.
type IdleTask struct {
	Run Task
	// Reuse re-queues the task after each run. A queue holding a reusable
	// idle task never goes dormant and must be shut down explicitly.
	Reuse bool
}

var (
	Main = NewQueue("main")
	IO   = NewConcurrentQueue("io", max(runtime.NumCPU()*2, 2))
)

type Queue struct {
	name string
	sem  *semaphore.Weighted

	mu        sync.Mutex
	tasks     *btree.BTreeG[*item]
	idle      *btree.BTreeG[*item]
	idleSince time.Time
	nextID    uint64
	status    Status
	running   bool
	wake      chan struct{}
	workerEnd chan struct{}
	observers []StatusObserver

	inflight sync.WaitGroup
}

// NewQueue returns a serial queue.
func NewQueue(name string) *Queue {
	return newQueue(name, nil)
}

// NewConcurrentQueue returns a queue running at most limit tasks at once.
func NewConcurrentQueue(name string, limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	return newQueue(name, semaphore.NewWeighted(int64(limit)))
}

func newQueue(name string, sem *semaphore.Weighted) *Queue {
	return &Queue{
		name:   name,
		sem:    sem,
		tasks:  btree.NewBTreeG(lessTask),
		idle:   btree.NewBTreeG(lessIdle),
		status: StatusInit,
		wake:   make(chan struct{}, 1),
	}
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

func (q *Queue) AddStatusObserver(o StatusObserver) {
	if o == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, o)
}

// Async schedules task and returns its context.
func (q *Queue) Async(task Task, opts ...Option) (*TaskContext, error) {
	if task == nil {
		return nil, errors.New("dispatch: nil task")
	}
	o := applyOptions(opts)
	return q.submit(&item{task: task}, o)
}

// Sync schedules task and blocks until it has run or was dropped. Calling
// Sync on a serial queue from one of its own tasks deadlocks.
func (q *Queue) Sync(task Task, opts ...Option) error {
	tc, err := q.Async(task, opts...)
	if err != nil {
		return err
	}
	<-tc.Done()
	return nil
}

// AddIdle schedules an idle task. The delay counts from the moment the queue
// became idle.
func (q *Queue) AddIdle(t IdleTask, opts ...Option) (*TaskContext, error) {
	if t.Run == nil {
		return nil, errors.New("dispatch: nil idle task")
	}
	o := applyOptions(opts)
	return q.submit(&item{task: t.Run, idle: true, reuse: t.Reuse, delay: o.delay}, o)
}

func (q *Queue) submit(it *item, o taskOptions) (*TaskContext, error) {
	q.mu.Lock()
	if q.status == StatusDestroyed {
		q.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", q.name, ErrQueueDestroyed)
	}

	now := time.Now()
	it.id = q.nextID
	q.nextID++
	it.tc = &TaskContext{
		id:     it.id,
		queue:  q,
		bundle: o.bundle,
		done:   make(chan struct{}),
	}

	var changed bool
	if it.idle {
		q.idle.Set(it)
	} else {
		it.runAt = now.Add(o.delay)
		q.tasks.Set(it)
		changed = q.setStatusLocked(StatusBusy)
	}

	if !q.running {
		q.running = true
		q.workerEnd = make(chan struct{})
		go q.work(q.workerEnd)
	}
	observers := q.observers
	status := q.status
	q.mu.Unlock()

	if changed {
		notify(q, observers, status)
	}
	q.signal()
	return it.tc, nil
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) work(end chan struct{}) {
	defer close(end)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		it, wait, ok := q.next()
		if !ok {
			return
		}
		if it == nil {
			timer.Reset(wait)
			select {
			case <-q.wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			case <-timer.C:
			}
			continue
		}
		q.execute(it)
	}
}

// next returns the next due item, or the time to wait for one. ok is false
// when the worker should exit.
func (q *Queue) next() (it *item, wait time.Duration, ok bool) {
	q.mu.Lock()

	if q.status == StatusDestroyed {
		q.running = false
		q.mu.Unlock()
		return nil, 0, false
	}

	now := time.Now()
	if head, found := q.tasks.Min(); found {
		if !head.runAt.After(now) {
			q.tasks.Delete(head)
			q.mu.Unlock()
			return head, 0, true
		}
		q.mu.Unlock()
		return nil, head.runAt.Sub(now), true
	}

	changed := false
	if q.status != StatusIdle {
		q.idleSince = now
		changed = q.setStatusLocked(StatusIdle)
	}

	head, found := q.idle.Min()
	if !found {
		q.running = false
		q.setStatusLocked(StatusDormant)
		observers := q.observers
		q.mu.Unlock()
		if changed {
			notify(q, observers, StatusIdle)
		}
		notify(q, observers, StatusDormant)
		return nil, 0, false
	}

	// Every idle delay counts from the same instant, so the tree order by
	// delay is the order by due time.
	due := q.idleSince.Add(head.delay)
	var popped *item
	if !due.After(now) {
		popped, _ = q.idle.Delete(head)
	}
	observers := q.observers
	q.mu.Unlock()

	if changed {
		notify(q, observers, StatusIdle)
	}
	if popped != nil {
		return popped, 0, true
	}
	return nil, due.Sub(now), true
}

func (q *Queue) execute(it *item) {
	if it.tc.Cancelled() {
		it.tc.finish()
		return
	}

	if q.sem == nil || it.idle {
		q.run(it)
		q.requeueIdle(it)
		return
	}

	if err := q.sem.Acquire(context.Background(), 1); err != nil {
		q.run(it)
		return
	}
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		defer q.sem.Release(1)
		q.run(it)
	}()
}

func (q *Queue) run(it *item) {
	defer it.tc.finish()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Dispatch task panicked.", "queue", q.name, "task_id", it.id, "panic", r)
		}
	}()
	it.task(it.tc)
}

func (q *Queue) requeueIdle(it *item) {
	if !it.idle || !it.reuse || it.tc.Cancelled() {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.status == StatusDestroyed {
		return
	}
	next := &item{
		id:    q.nextID,
		task:  it.task,
		idle:  true,
		reuse: true,
		delay: it.delay,
		tc: &TaskContext{
			id:     q.nextID,
			queue:  q,
			bundle: it.tc.bundle,
			done:   make(chan struct{}),
		},
	}
	q.nextID++
	q.idle.Set(next)
	// Running a task ends the idle period; the next one starts now.
	q.idleSince = time.Now()
}

// Shutdown stops the queue. Tasks already running complete; pending tasks
// are dropped and further submissions fail with ErrQueueDestroyed.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.status == StatusDestroyed {
		q.mu.Unlock()
		return
	}
	q.setStatusLocked(StatusDestroyed)
	dropped := drain(q.tasks)
	dropped = append(dropped, drain(q.idle)...)
	q.tasks = btree.NewBTreeG(lessTask)
	q.idle = btree.NewBTreeG(lessIdle)
	observers := q.observers
	q.mu.Unlock()

	for _, it := range dropped {
		it.tc.Cancel()
		it.tc.finish()
	}
	notify(q, observers, StatusDestroyed)
	q.signal()
}

// AwaitShutdown shuts the queue down and waits for the worker and any
// running tasks to finish, or for ctx to end.
func (q *Queue) AwaitShutdown(ctx context.Context) error {
	q.Shutdown()

	q.mu.Lock()
	end := q.workerEnd
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if end != nil {
			<-end
		}
		q.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("await shutdown of %s: %w", q.name, ctx.Err())
	}
}

func (q *Queue) setStatusLocked(s Status) bool {
	if q.status == s {
		return false
	}
	q.status = s
	return true
}

func notify(q *Queue, observers []StatusObserver, s Status) {
	for _, o := range observers {
		o(q, s)
	}
}

func drain(t *btree.BTreeG[*item]) []*item {
	items := make([]*item, 0, t.Len())
	t.Scan(func(it *item) bool {
		items = append(items, it)
		return true
	})
	return items
}

func applyOptions(opts []Option) taskOptions {
	var o taskOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
