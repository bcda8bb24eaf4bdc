package lifecycle_test

import (
	"testing"

	"github.com/cxuy/cxkit/internal/lifecycle"
)

type recorder struct {
	states []lifecycle.State
	owners []lifecycle.Owner
}

func (r *recorder) LifecycleChanged(owner lifecycle.Owner, state lifecycle.State) {
	r.owners = append(r.owners, owner)
	r.states = append(r.states, state)
}

type component struct {
	lifecycle.Registry
}

func newComponent() *component {
	c := &component{}
	c.Bind(c)
	return c
}

func TestRegistry_ZeroValueIsAny(t *testing.T) {
	t.Parallel()

	var r lifecycle.Registry
	if got, want := r.State(), lifecycle.Any; got != want {
		t.Errorf("r.State() = %v, want: %v", got, want)
	}
}

func TestRegistry_SetStateNotifiesObservers(t *testing.T) {
	t.Parallel()

	c := newComponent()
	rec := &recorder{}
	c.AddObserver(rec)
	c.AddObserver(rec)
	c.AddObserver(nil)

	c.SetState(lifecycle.Inited)
	c.SetState(lifecycle.DidStart)

	if got, want := len(rec.states), 2; got != want {
		t.Fatalf("len(rec.states) = %d, want: %d", got, want)
	}
	if rec.states[1] != lifecycle.DidStart {
		t.Errorf("rec.states[1] = %v, want: %v", rec.states[1], lifecycle.DidStart)
	}
	if rec.owners[0] != lifecycle.Owner(c) {
		t.Errorf("observer received owner %v, want the bound component", rec.owners[0])
	}
	if got := c.State(); got != lifecycle.DidStart {
		t.Errorf("c.State() = %v, want: %v", got, lifecycle.DidStart)
	}
}

func TestRegistry_RemoveObserver(t *testing.T) {
	t.Parallel()

	c := newComponent()
	calls := 0
	fn := lifecycle.NewObserverFunc(func(_ lifecycle.Owner, _ lifecycle.State) {
		calls++
	})
	c.AddObserver(fn)
	c.SetState(lifecycle.Inited)
	c.RemoveObserver(fn)
	c.SetState(lifecycle.DidDestroy)

	if calls != 1 {
		t.Errorf("calls = %d, want: 1", calls)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state lifecycle.State
		want  string
	}{
		{lifecycle.Any, "any"},
		{lifecycle.DidStart, "did_start"},
		{lifecycle.DidDestroy, "did_destroy"},
		{lifecycle.State(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want: %q", int(tc.state), got, tc.want)
		}
	}
}
