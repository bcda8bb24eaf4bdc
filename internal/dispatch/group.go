package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

type groupTask struct {
	queue *Queue
	task  Task
	opts  []Option
}

// Group collects tasks across queues and runs a notify task after all of
// them have finished.
type Group struct {
	mu      sync.Mutex
	pending []groupTask
}

func (g *Group) Async(q *Queue, task Task, opts ...Option) {
	if q == nil || task == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, groupTask{queue: q, task: task, opts: opts})
}

// Notify seals the tasks added so far, starts them, and schedules task on q
// once they all finished. Tasks added afterwards form a new batch. Notify
// without pending tasks does nothing.
func (g *Group) Notify(q *Queue, task Task, opts ...Option) {
	if q == nil || task == nil {
		return
	}
	wg, ok := g.start()
	if !ok {
		return
	}
	go func() {
		wg.Wait()
		if _, err := q.Async(task, opts...); err != nil {
			slog.Warn("Group notify task was not scheduled.", "queue", q.Name(), "error", err)
		}
	}()
}

// Wait seals and starts the pending tasks and blocks until they finished or
// ctx ends.
func (g *Group) Wait(ctx context.Context) error {
	wg, ok := g.start()
	if !ok {
		return nil
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Group) start() (*sync.WaitGroup, bool) {
	g.mu.Lock()
	batch := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(batch) == 0 {
		return nil, false
	}

	var wg sync.WaitGroup
	wg.Add(len(batch))
	for _, gt := range batch {
		tc, err := gt.queue.Async(gt.task, gt.opts...)
		if err != nil {
			slog.Warn("Group task was not scheduled.", "queue", gt.queue.Name(), "error", err)
			wg.Done()
			continue
		}
		go func() {
			<-tc.Done()
			wg.Done()
		}()
	}
	return &wg, true
}
