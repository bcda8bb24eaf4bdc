package protocol

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cxuy/cxkit/internal/httpclient"
)

// Tag kinds. Method and Headers come from the Endpoint, the others from
// `rpc` struct tags on the argument fields.
const (
	KindMethod  = "method"
	KindHeaders = "headers"
	KindParam   = "param"
	KindPath    = "path"
	KindHeader  = "header"
	KindBody    = "body"
)

// Tag is a parsed `rpc:"kind,name"` struct tag.
type Tag struct {
	Kind string
	Name string
}

func parseTag(s string) (Tag, bool) {
	if s == "" || s == "-" {
		return Tag{}, false
	}
	kind, name, _ := strings.Cut(s, ",")
	return Tag{Kind: strings.TrimSpace(kind), Name: strings.TrimSpace(name)}, true
}

// Binder applies one tagged value to a request under construction.
type Binder interface {
	Responds(t Tag) bool
	Bind(p *Protocol, t Tag, value any, b *httpclient.RequestBuilder)
}

// Registry holds the binders by name.
type Registry struct {
	mu      sync.RWMutex
	binders map[string]Binder
}

func NewRegistry() *Registry {
	return &Registry{binders: make(map[string]Binder)}
}

// DefaultRegistry returns a registry with the method, headers, param, path,
// header and body binders.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Add(KindMethod, MethodBinder{})
	r.Add(KindHeaders, HeadersBinder{})
	r.Add(KindParam, ParamBinder{})
	r.Add(KindPath, PathBinder{})
	r.Add(KindHeader, HeaderBinder{})
	r.Add(KindBody, BodyBinder{})
	return r
}

func (r *Registry) Add(name string, b Binder) {
	if name == "" || b == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binders[name] = b
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.binders, name)
}

func (r *Registry) Get(name string) (Binder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.binders[name]
	return b, ok
}

// Responders returns every binder responding to t.
func (r *Registry) Responders(t Tag) []Binder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Binder
	for _, b := range r.binders {
		if b.Responds(t) {
			out = append(out, b)
		}
	}
	return out
}

// unique returns the only responder of t. A tag with no responder or with
// several is skipped.
func (r *Registry) unique(t Tag) (Binder, bool) {
	bs := r.Responders(t)
	switch len(bs) {
	case 1:
		return bs[0], true
	case 0:
		slog.Warn("No binder responds to tag.", "kind", t.Kind, "name", t.Name)
	default:
		slog.Warn("Several binders respond to tag.", "kind", t.Kind, "name", t.Name, "count", len(bs))
	}
	return nil, false
}

type MethodBinder struct{}

func (MethodBinder) Responds(t Tag) bool { return t.Kind == KindMethod }

// Bind sets the method named by the tag and, when value is a non-empty
// path, the URL as base URL plus path. An empty name keeps GET.
func (MethodBinder) Bind(p *Protocol, t Tag, value any, b *httpclient.RequestBuilder) {
	if path, ok := value.(string); ok && path != "" {
		b.URL(p.BaseURL + path)
	}
	if t.Name != "" {
		b.Method(httpclient.Method(strings.ToUpper(t.Name)))
	}
}

type HeadersBinder struct{}

func (HeadersBinder) Responds(t Tag) bool { return t.Kind == KindHeaders }

// Bind adds "key=value" entries split on the first "=". Entries without
// "=" are skipped.
func (HeadersBinder) Bind(_ *Protocol, _ Tag, value any, b *httpclient.RequestBuilder) {
	entries, _ := value.([]string)
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			slog.Debug("Malformed header skipped.", "header", e)
			continue
		}
		b.Header(k, v)
	}
}

type ParamBinder struct{}

func (ParamBinder) Responds(t Tag) bool { return t.Kind == KindParam }

func (ParamBinder) Bind(_ *Protocol, t Tag, value any, b *httpclient.RequestBuilder) {
	if t.Name == "" || value == nil {
		return
	}
	b.Param(t.Name, value)
}

type PathBinder struct{}

func (PathBinder) Responds(t Tag) bool { return t.Kind == KindPath }

func (PathBinder) Bind(_ *Protocol, t Tag, value any, b *httpclient.RequestBuilder) {
	if t.Name == "" || value == nil {
		return
	}
	b.SubPath(t.Name, fmt.Sprint(value))
}

type HeaderBinder struct{}

func (HeaderBinder) Responds(t Tag) bool { return t.Kind == KindHeader }

func (HeaderBinder) Bind(_ *Protocol, t Tag, value any, b *httpclient.RequestBuilder) {
	if t.Name == "" || value == nil {
		return
	}
	b.Header(t.Name, fmt.Sprint(value))
}

type BodyBinder struct{}

func (BodyBinder) Responds(t Tag) bool { return t.Kind == KindBody }

// Bind uses strings and byte slices as the body verbatim and encodes any
// other value with the protocol's encoder.
func (BodyBinder) Bind(p *Protocol, _ Tag, value any, b *httpclient.RequestBuilder) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		b.BodyString(v)
		return
	case []byte:
		b.Body(v)
		return
	}
	if p.Encoder == nil {
		slog.Warn("Body skipped without encoder.", "type", fmt.Sprintf("%T", value))
		return
	}
	data, err := p.Encoder.Encode(value)
	if err != nil {
		slog.Error("Body encoding failed.", "type", fmt.Sprintf("%T", value), "reason", err)
		return
	}
	b.Body(data)
	b.Header("Content-Type", p.Encoder.ContentType())
}
