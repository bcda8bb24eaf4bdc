package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/cxuy/cxkit/internal/pkg/web"
	"github.com/cxuy/cxkit/internal/platform/router"
	"github.com/cxuy/cxkit/internal/platform/validation"
	"github.com/cxuy/cxkit/internal/rpc"
)

const MsgHandled = "handle successful"

var (
	ErrNoEndpoint = errors.New("server: no endpoint matches the request")
	ErrNotFound   = errors.New("server: unknown path")
)

// Handler groups endpoints under a path prefix. A request is dispatched to
// the first endpoint, in registration order, whose declared args fit the
// request's query keys and body.
type Handler struct {
	prefix string

	mu          sync.RWMutex
	routes      map[string][]*endpoint
	paths       []string
	middlewares []router.Middleware

	validator    validation.Validator
	maxBodyBytes int64
}

func NewHandler(prefix string) *Handler {
	return &Handler{
		prefix: prefix,
		routes: make(map[string][]*endpoint),
	}
}

func (h *Handler) Prefix() string {
	return h.prefix
}

// Handle registers fn for prefix+subPath. Each parameter of fn, after an
// optional leading context.Context, is bound by the arg at the same
// position.
func (h *Handler) Handle(subPath string, fn any, args ...Arg) error {
	e, err := newEndpoint(subPath, fn, args)
	if err != nil {
		return fmt.Errorf("register %s%s: %w", h.prefix, subPath, err)
	}

	full := JoinPath(h.prefix, subPath)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.routes[full]; !ok {
		h.paths = append(h.paths, full)
	}
	h.routes[full] = append(h.routes[full], e)
	return nil
}

// Use adds middlewares run before this handler's endpoints.
func (h *Handler) Use(mws ...router.Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.middlewares = append(h.middlewares, mws...)
}

// Paths returns the full paths served by the handler in registration order.
func (h *Handler) Paths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.paths...)
}

// SetValidator sets the validator for struct bodies.
func (h *Handler) SetValidator(v validation.Validator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.validator = v
}

// SetMaxBodyBytes limits the size of request bodies. Zero means no limit.
func (h *Handler) SetMaxBodyBytes(n int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxBodyBytes = n
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	mws := h.middlewares
	h.mu.RUnlock()

	var next http.Handler = http.HandlerFunc(h.serve)
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	next.ServeHTTP(w, r)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	path := JoinPath(r.URL.Path)

	h.mu.RLock()
	endpoints := h.routes[path]
	v, limit := h.validator, h.maxBodyBytes
	h.mu.RUnlock()

	if len(endpoints) == 0 {
		web.Fail(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrNotFound, path), rpc.Failure)
		return
	}

	query := queryValues(r)
	body, err := readBody(w, r, limit)
	if err != nil {
		web.Fail(w, http.StatusBadRequest, err, rpc.ParamsError)
		return
	}

	e := dispatch(endpoints, query, len(body) > 0)
	if e == nil {
		web.Fail(w, http.StatusBadRequest, fmt.Errorf("%w: %s %v", ErrNoEndpoint, path, keys(query)), rpc.Failure)
		return
	}

	values, details, err := bind(e, query, body, v)
	if err != nil {
		if details != nil {
			web.FailWith(w, http.StatusBadRequest, err, rpc.ParamsError, "invalid input", details)
			return
		}
		web.Fail(w, http.StatusBadRequest, err, rpc.ParamsError)
		return
	}

	result, err := e.call(r.Context(), values)
	if err != nil {
		if se, ok := asError(err); ok {
			web.Fail(w, se.Status, fmt.Errorf("handle %s: %w", path, err), se.Code)
			return
		}
		web.ServerError(w, fmt.Errorf("handle %s: %w", path, err))
		return
	}

	web.OK(w, MsgHandled, result)
	slog.Debug("Request handled.", "path", path, "endpoint", e.subPath, "prefix", h.prefix)
}

func dispatch(endpoints []*endpoint, query map[string]string, hasBody bool) *endpoint {
	for _, e := range endpoints {
		if e.matches(query, hasBody) {
			return e
		}
	}
	return nil
}

// bind converts the request into call arguments. details carries per-field
// messages when a struct body fails validation.
func bind(e *endpoint, query map[string]string, body []byte, v validation.Validator) ([]reflect.Value, map[string]string, error) {
	values := make([]reflect.Value, len(e.args))
	for i, a := range e.args {
		t := e.paramType(i)
		switch a.kind {
		case argQuery:
			val, err := convertQuery(query[a.name], t)
			if err != nil {
				return nil, nil, fmt.Errorf("query %s: %w", a.name, err)
			}
			values[i] = val
		case argBody:
			val, err := convertBody(body, t)
			if err != nil {
				return nil, nil, err
			}
			if v != nil && isStruct(t) {
				if errs := v.ValidateStruct(val.Interface()); len(errs) > 0 {
					return nil, errs, fmt.Errorf("%w: body failed validation", ErrConvert)
				}
			}
			values[i] = val
		}
	}
	return values, nil, nil
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// queryValues returns the first value of every query key.
func queryValues(r *http.Request) map[string]string {
	q := r.URL.Query()
	out := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		} else {
			out[k] = ""
		}
	}
	return out
}

// readBody returns nil for GET requests, which never carry a body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil {
		return nil, nil
	}
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// JoinPath joins path parts and drops empty segments. The result always
// starts with "/" and is "/" when nothing remains.
func JoinPath(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				continue
			}
			b.WriteByte('/')
			b.WriteString(seg)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
