package httpclient

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Request is an HTTP request description. Interceptors may change its
// headers before it is executed.
type Request struct {
	ID              string
	Method          Method
	URL             string
	Params          map[string]string
	Body            []byte
	Files           map[string]string
	FollowRedirects bool

	mu      sync.RWMutex
	headers map[string]string
}

func (r *Request) Header(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.headers[key]
	return v, ok
}

func (r *Request) SetHeader(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers[key] = value
}

// Headers returns a copy of the request headers.
func (r *Request) Headers() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.headers)
}

// RequestBuilder assembles a Request. The zero method is GET and redirects
// are followed unless disabled.
type RequestBuilder struct {
	method          Method
	url             string
	subPaths        [][2]string
	headers         map[string]string
	params          map[string]string
	body            []byte
	files           map[string]string
	followRedirects bool
	err             error
}

func NewRequest(url string) *RequestBuilder {
	return &RequestBuilder{
		method:          GET,
		url:             url,
		headers:         make(map[string]string),
		params:          make(map[string]string),
		files:           make(map[string]string),
		followRedirects: true,
	}
}

func (b *RequestBuilder) Method(m Method) *RequestBuilder {
	b.method = m
	return b
}

func (b *RequestBuilder) URL(url string) *RequestBuilder {
	b.url = url
	return b
}

// SubPath replaces every {key} placeholder of the URL with value. Other
// placeholders are left as they are.
func (b *RequestBuilder) SubPath(key, value string) *RequestBuilder {
	b.subPaths = append(b.subPaths, [2]string{key, value})
	return b
}

func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	if key != "" {
		b.headers[key] = value
	}
	return b
}

func (b *RequestBuilder) Headers(h map[string]string) *RequestBuilder {
	for k, v := range h {
		b.Header(k, v)
	}
	return b
}

// Param adds a parameter. Values are formatted with fmt.Sprint.
func (b *RequestBuilder) Param(key string, value any) *RequestBuilder {
	if key != "" {
		b.params[key] = fmt.Sprint(value)
	}
	return b
}

func (b *RequestBuilder) Params(p map[string]any) *RequestBuilder {
	for k, v := range p {
		b.Param(k, v)
	}
	return b
}

func (b *RequestBuilder) Body(body []byte) *RequestBuilder {
	b.body = body
	return b
}

func (b *RequestBuilder) BodyString(body string) *RequestBuilder {
	b.body = []byte(body)
	return b
}

// JSON sets value at path in the JSON body, creating the body when empty.
func (b *RequestBuilder) JSON(path string, value any) *RequestBuilder {
	body := b.body
	if len(body) == 0 {
		body = []byte("{}")
	}
	out, err := sjson.SetBytes(body, path, value)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("set json %s: %w", path, err))
		return b
	}
	b.body = out
	if _, ok := b.headers[headerContentType]; !ok {
		b.headers[headerContentType] = mimeJSON
	}
	return b
}

// File adds the file at path as the multipart field named field.
func (b *RequestBuilder) File(field, path string) *RequestBuilder {
	if field != "" {
		b.files[field] = path
	}
	return b
}

func (b *RequestBuilder) FollowRedirects(follow bool) *RequestBuilder {
	b.followRedirects = follow
	return b
}

func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, b.method)
	}

	url := b.url
	for _, sp := range b.subPaths {
		url = replacePlaceholder(url, sp[0], sp[1])
	}

	return &Request{
		ID:              uuid.NewString(),
		Method:          b.method,
		URL:             url,
		headers:         maps.Clone(b.headers),
		Params:          maps.Clone(b.params),
		Body:            b.body,
		Files:           maps.Clone(b.files),
		FollowRedirects: b.followRedirects,
	}, nil
}

func replacePlaceholder(url, key, value string) string {
	return placeholder.ReplaceAllStringFunc(url, func(m string) string {
		if m[1:len(m)-1] == key {
			return value
		}
		return m
	})
}
