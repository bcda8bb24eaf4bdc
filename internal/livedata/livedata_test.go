package livedata_test

import (
	"testing"

	"github.com/cxuy/cxkit/internal/dispatch"
	"github.com/cxuy/cxkit/internal/lifecycle"
	"github.com/cxuy/cxkit/internal/livedata"
)

type owner struct {
	lifecycle.Registry
}

func newOwner() *owner {
	o := &owner{}
	o.Bind(o)
	o.SetState(lifecycle.DidStart)
	return o
}

func newQueue(t *testing.T) *dispatch.Queue {
	t.Helper()

	q := dispatch.NewQueue(t.Name())
	t.Cleanup(q.Shutdown)
	return q
}

func drain(t *testing.T, q *dispatch.Queue) {
	t.Helper()

	if err := q.Sync(func(*dispatch.TaskContext) {}); err != nil {
		t.Fatalf("q.Sync: %v", err)
	}
}

func TestLiveData_ObserverReceivesCurrentValue(t *testing.T) {
	t.Parallel()

	q := newQueue(t)
	ld := livedata.New("initial", livedata.WithQueue(q))

	var got []string
	ld.Observe(newOwner(), func(v string) { got = append(got, v) })
	drain(t, q)

	ld.Post("next")
	drain(t, q)

	if len(got) != 2 || got[0] != "initial" || got[1] != "next" {
		t.Errorf("got = %v, want: [initial next]", got)
	}
	if v, ok := ld.Value(); !ok || v != "next" {
		t.Errorf("ld.Value() = %q, %t, want: next, true", v, ok)
	}
}

func TestLiveData_MutableDeliversNothingBeforePost(t *testing.T) {
	t.Parallel()

	q := newQueue(t)
	ld := livedata.NewMutable[int](livedata.WithQueue(q))

	var got []int
	ld.Observe(newOwner(), func(v int) { got = append(got, v) })
	drain(t, q)
	if len(got) != 0 {
		t.Fatalf("got = %v before the first post, want none", got)
	}
	if _, ok := ld.Value(); ok {
		t.Error("ld.Value() reported a value before the first post")
	}

	ld.Post(3)
	drain(t, q)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("got = %v, want: [3]", got)
	}
}

func TestLiveData_ObserveReplacesPreviousObserverOfOwner(t *testing.T) {
	t.Parallel()

	q := newQueue(t)
	ld := livedata.NewMutable[int](livedata.WithQueue(q))
	o := newOwner()

	var first, second int
	ld.Observe(o, func(int) { first++ })
	ld.Observe(o, func(int) { second++ })
	ld.Post(1)
	drain(t, q)

	if first != 0 || second != 1 {
		t.Errorf("first = %d, second = %d, want: 0, 1", first, second)
	}
}

func TestLiveData_DestroyedOwnerIsDropped(t *testing.T) {
	t.Parallel()

	q := newQueue(t)
	ld := livedata.NewMutable[int](livedata.WithQueue(q))
	o := newOwner()

	var calls int
	ld.Observe(o, func(int) { calls++ })
	o.SetState(lifecycle.DidDestroy)

	if ld.HasObservers() {
		t.Error("ld.HasObservers() = true after the owner was destroyed")
	}
	ld.Post(1)
	drain(t, q)
	if calls != 0 {
		t.Errorf("calls = %d, want: 0", calls)
	}

	ld.Observe(o, func(int) { calls++ })
	if ld.HasObservers() {
		t.Error("observing with a destroyed owner registered an observer")
	}
}

func TestLiveData_ObserveForever(t *testing.T) {
	t.Parallel()

	q := newQueue(t)
	ld := livedata.New(1, livedata.WithQueue(q))

	var got []int
	remove := ld.ObserveForever(func(v int) { got = append(got, v) })
	drain(t, q)
	remove()
	ld.Post(2)
	drain(t, q)

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("got = %v, want: [1]", got)
	}
}
