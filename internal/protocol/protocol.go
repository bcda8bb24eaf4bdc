// Package protocol builds httpclient requests from endpoint descriptions and
// tagged argument structs:
//
//	type loginArgs struct {
//		User string `rpc:"param,username"`
//		Pwd  string `rpc:"param,pwd"`
//	}
//
//	req, err := p.Build(protocol.Endpoint{Method: httpclient.GET, Path: "/login"}, loginArgs{"kpb", "123"})
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/cxuy/cxkit/internal/httpclient"
	"github.com/cxuy/cxkit/internal/rpc"
)

const tagName = "rpc"

var ErrArgs = errors.New("protocol: args must be a struct or a pointer to one")

type Encoder interface {
	Encode(v any) ([]byte, error)
	ContentType() string
}

type JSONEncoder struct{}

func (JSONEncoder) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONEncoder) ContentType() string {
	return "application/json"
}

type Endpoint struct {
	Method httpclient.Method
	Path   string
	// Headers are "key=value" entries.
	Headers []string
}

type Protocol struct {
	BaseURL string
	Encoder Encoder

	binders *Registry
}

type Option func(*Protocol)

func WithRegistry(r *Registry) Option {
	return func(p *Protocol) {
		p.binders = r
	}
}

// New returns a protocol encoding bodies as JSON with the default binders.
func New(baseURL string, opts ...Option) *Protocol {
	p := &Protocol{
		BaseURL: baseURL,
		Encoder: JSONEncoder{},
		binders: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Protocol) Registry() *Registry {
	return p.binders
}

// Build returns the request for ep with the tagged fields of args bound.
// args may be nil. Nil field values are skipped.
func (p *Protocol) Build(ep Endpoint, args any) (*httpclient.Request, error) {
	b := httpclient.NewRequest("")

	p.bind(Tag{Kind: KindMethod, Name: string(ep.Method)}, ep.Path, b)
	if len(ep.Headers) > 0 {
		p.bind(Tag{Kind: KindHeaders}, ep.Headers, b)
	}

	if err := p.bindArgs(args, b); err != nil {
		return nil, err
	}

	req, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", ep.Method, ep.Path, err)
	}
	return req, nil
}

func (p *Protocol) bind(t Tag, value any, b *httpclient.RequestBuilder) {
	if binder, ok := p.binders.unique(t); ok {
		binder.Bind(p, t, value, b)
	}
}

func (p *Protocol) bindArgs(args any, b *httpclient.RequestBuilder) error {
	if args == nil {
		return nil
	}
	v := reflect.ValueOf(args)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %T", ErrArgs, args)
	}

	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := parseTag(f.Tag.Get(tagName))
		if !ok {
			continue
		}
		p.bind(tag, fieldValue(v.Field(i)), b)
	}
	return nil
}

// fieldValue returns the field as an any, with nil pointers, maps, slices
// and interfaces as nil and other pointers dereferenced.
func fieldValue(f reflect.Value) any {
	switch f.Kind() {
	case reflect.Pointer:
		if f.IsNil() {
			return nil
		}
		return f.Elem().Interface()
	case reflect.Interface, reflect.Map, reflect.Slice:
		if f.IsNil() {
			return nil
		}
	}
	return f.Interface()
}

// Do builds the request and sends it with c.
func (p *Protocol) Do(ctx context.Context, c *httpclient.Client, ep Endpoint, args any) (*httpclient.Response, error) {
	req, err := p.Build(ep, args)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Call sends the request and decodes the reply envelope.
func Call[T any](ctx context.Context, c *httpclient.Client, p *Protocol, ep Endpoint, args any) (rpc.Envelope[T], error) {
	resp, err := p.Do(ctx, c, ep, args)
	if err != nil {
		return rpc.Envelope[T]{}, err
	}
	return httpclient.Envelope[T](resp)
}
