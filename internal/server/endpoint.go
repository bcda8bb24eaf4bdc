package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotFunc       = errors.New("server: endpoint is not a func")
	ErrArity         = errors.New("server: endpoint args do not match the func parameters")
	ErrManyBodies    = errors.New("server: endpoint declares more than one body")
	ErrResults       = errors.New("server: endpoint results must be (), (T), (error) or (T, error)")
	ErrEmptyArgName  = errors.New("server: query arg without a name")
	ErrDuplicateName = errors.New("server: query arg declared twice")
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

type argKind int

const (
	argQuery argKind = iota
	argBody
)

// Arg binds one func parameter to the request.
type Arg struct {
	kind argKind
	name string
}

// Query binds a parameter to the query value named name.
func Query(name string) Arg {
	return Arg{kind: argQuery, name: name}
}

// Body binds a parameter to the JSON request body.
func Body() Arg {
	return Arg{kind: argBody}
}

func (a Arg) String() string {
	if a.kind == argBody {
		return "body"
	}
	return "query:" + a.name
}

type endpoint struct {
	subPath string
	fn      reflect.Value
	args    []Arg

	// withCtx is set when the first parameter is a context.Context.
	withCtx bool

	queryNames []string
	hasBody    bool

	// Positions of the value and error results, -1 when absent.
	valueOut int
	errOut   int
}

func newEndpoint(subPath string, fn any, args []Arg) (*endpoint, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%s: %w", subPath, ErrNotFunc)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%s: variadic func: %w", subPath, ErrArity)
	}

	e := &endpoint{subPath: subPath, fn: v, args: args, valueOut: -1, errOut: -1}

	in := t.NumIn()
	if in > 0 && t.In(0) == contextType {
		e.withCtx = true
		in--
	}
	if in != len(args) {
		return nil, fmt.Errorf("%s: func takes %d values, %d args declared: %w", subPath, in, len(args), ErrArity)
	}

	seen := make(map[string]struct{}, len(args))
	for _, a := range args {
		switch a.kind {
		case argBody:
			if e.hasBody {
				return nil, fmt.Errorf("%s: %w", subPath, ErrManyBodies)
			}
			e.hasBody = true
		case argQuery:
			if a.name == "" {
				return nil, fmt.Errorf("%s: %w", subPath, ErrEmptyArgName)
			}
			if _, dup := seen[a.name]; dup {
				return nil, fmt.Errorf("%s: %s: %w", subPath, a.name, ErrDuplicateName)
			}
			seen[a.name] = struct{}{}
			e.queryNames = append(e.queryNames, a.name)
		}
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			e.errOut = 0
		} else {
			e.valueOut = 0
		}
	case 2:
		if t.Out(1) != errorType || t.Out(0) == errorType {
			return nil, fmt.Errorf("%s: %w", subPath, ErrResults)
		}
		e.valueOut, e.errOut = 0, 1
	default:
		return nil, fmt.Errorf("%s: %w", subPath, ErrResults)
	}

	return e, nil
}

// matches reports whether the request shape fits the endpoint: every query
// name is present, no extra query keys are sent and a body is present when
// one is declared.
func (e *endpoint) matches(query map[string]string, hasBody bool) bool {
	if len(e.queryNames) != len(query) {
		return false
	}
	for _, name := range e.queryNames {
		if _, ok := query[name]; !ok {
			return false
		}
	}
	return !e.hasBody || hasBody
}

func (e *endpoint) paramType(argIndex int) reflect.Type {
	if e.withCtx {
		argIndex++
	}
	return e.fn.Type().In(argIndex)
}

// call invokes the func and splits its results. A panic inside the func is
// returned as an error.
func (e *endpoint) call(ctx context.Context, values []reflect.Value) (result any, err error) {
	in := values
	if e.withCtx {
		in = append([]reflect.Value{reflect.ValueOf(&ctx).Elem()}, values...)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	out := e.fn.Call(in)
	if e.errOut >= 0 {
		if errV := out[e.errOut]; !errV.IsNil() {
			return nil, errV.Interface().(error)
		}
	}
	if e.valueOut >= 0 {
		return out[e.valueOut].Interface(), nil
	}
	return nil, nil
}

var errPanic = errors.New("endpoint panicked")
