// Package lifecycle defines ordered lifecycle states and an observable owner
// that components embed to publish their state transitions.
package lifecycle

import "sync"

type State int

const (
	Any State = iota - 1
	Inited
	WillCreate
	DidCreate
	WillStart
	DidStart
	WillResume
	DidResume
	WillPause
	DidPause
	WillStop
	DidStop
	WillDestroy
	DidDestroy
)

var stateNames = map[State]string{
	Any:         "any",
	Inited:      "inited",
	WillCreate:  "will_create",
	DidCreate:   "did_create",
	WillStart:   "will_start",
	DidStart:    "did_start",
	WillResume:  "will_resume",
	DidResume:   "did_resume",
	WillPause:   "will_pause",
	DidPause:    "did_pause",
	WillStop:    "will_stop",
	DidStop:     "did_stop",
	WillDestroy: "will_destroy",
	DidDestroy:  "did_destroy",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Observer is notified of every state change of the owners it is added to.
type Observer interface {
	LifecycleChanged(owner Owner, state State)
}

// ObserverFunc adapts a plain function to an Observer. Function values are
// not comparable, so an ObserverFunc must be passed as a pointer to be
// removable later.
type ObserverFunc func(owner Owner, state State)

func (f *ObserverFunc) LifecycleChanged(owner Owner, state State) {
	(*f)(owner, state)
}

// NewObserverFunc returns a removable Observer backed by fn.
func NewObserverFunc(fn func(owner Owner, state State)) *ObserverFunc {
	f := ObserverFunc(fn)
	return &f
}

type Owner interface {
	State() State
	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// Registry is an embeddable Owner implementation. The zero value is in state
// Any and has no observers.
type Registry struct {
	mu        sync.RWMutex
	state     State
	observers []Observer
	self      Owner
	inited    bool
}

// Bind sets the owner value reported to observers. Types embedding Registry
// call it with themselves so observers can compare owners by identity.
func (r *Registry) Bind(self Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.self = self
}

func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.inited {
		return Any
	}
	return r.state
}

// SetState records state and notifies observers synchronously, in the
// order they were added.
func (r *Registry) SetState(state State) {
	r.mu.Lock()
	r.state = state
	r.inited = true
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	var owner Owner = r
	if r.self != nil {
		owner = r.self
	}
	r.mu.Unlock()

	for _, o := range observers {
		o.LifecycleChanged(owner, state)
	}
}

func (r *Registry) AddObserver(o Observer) {
	if o == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.observers {
		if existing == o {
			return
		}
	}
	r.observers = append(r.observers, o)
}

func (r *Registry) RemoveObserver(o Observer) {
	if o == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}
