// Package httpclient sends HTTP requests described by Request values,
// synchronously or on a dispatch queue.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cxuy/cxkit/internal/dispatch"
)

const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultResponseTimeout = 10 * time.Second
)

var ErrNilRequest = errors.New("httpclient: nil request")

type Callback func(c *Client, r *Request, resp *Response, err error)

type Client struct {
	queue *dispatch.Queue

	follow   *http.Client
	noFollow *http.Client

	mu           sync.RWMutex
	interceptors []Interceptor
}

type Option func(*options)

type options struct {
	connectTimeout  time.Duration
	responseTimeout time.Duration
	queue           *dispatch.Queue
	transport       http.RoundTripper
}

func WithTimeouts(connect, response time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = connect
		o.responseTimeout = response
	}
}

// WithQueue sets the queue Async runs on. The default is dispatch.IO.
func WithQueue(q *dispatch.Queue) Option {
	return func(o *options) {
		o.queue = q
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

func New(opts ...Option) *Client {
	o := options{
		connectTimeout:  DefaultConnectTimeout,
		responseTimeout: DefaultResponseTimeout,
		queue:           dispatch.IO,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rt := o.transport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{Timeout: o.connectTimeout}).DialContext
		t.TLSHandshakeTimeout = o.connectTimeout
		t.ResponseHeaderTimeout = o.responseTimeout
		rt = t
	}

	return &Client{
		queue:  o.queue,
		follow: &http.Client{Transport: rt, Timeout: o.connectTimeout + o.responseTimeout},
		noFollow: &http.Client{
			Transport: rt,
			Timeout:   o.connectTimeout + o.responseTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

var Default = sync.OnceValue(func() *Client {
	return New()
})

func (c *Client) AddInterceptor(i Interceptor) {
	if i == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.interceptors {
		if existing == i {
			return
		}
	}
	c.interceptors = append(c.interceptors, i)
}

func (c *Client) RemoveInterceptor(i Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for idx, existing := range c.interceptors {
		if existing == i {
			c.interceptors = append(c.interceptors[:idx], c.interceptors[idx+1:]...)
			return
		}
	}
}

func (c *Client) snapshot() []Interceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Interceptor(nil), c.interceptors...)
}

// Do sends r and waits for the response. Responses with error statuses are
// returned without error.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	if r == nil {
		return nil, ErrNilRequest
	}
	interceptors := c.snapshot()
	for _, i := range interceptors {
		i.BeforeSubmit(c, r)
	}
	for _, i := range interceptors {
		i.Submitted(c, r, true)
	}
	return c.execute(ctx, r)
}

// Async sends r on the client's queue and passes the outcome to cb. The
// returned error only reports whether r could be queued.
func (c *Client) Async(ctx context.Context, r *Request, cb Callback) error {
	if r == nil {
		return ErrNilRequest
	}
	for _, i := range c.snapshot() {
		i.BeforeSubmit(c, r)
	}

	_, err := c.queue.Async(func(*dispatch.TaskContext) {
		resp, err := c.execute(ctx, r)
		if cb != nil {
			cb(c, r, resp, err)
		}
	})

	for _, i := range c.snapshot() {
		i.Submitted(c, r, err == nil)
	}
	if err != nil {
		return fmt.Errorf("queue request %s: %w", r.ID, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, r *Request) (resp *Response, err error) {
	interceptors := c.snapshot()
	for _, i := range interceptors {
		i.BeforeExecute(c, r)
	}
	defer func() {
		for _, i := range interceptors {
			i.Executed(c, r, resp, err)
		}
	}()

	req, err := newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	hc := c.follow
	if !r.FollowRedirects {
		hc = c.noFollow
	}

	start := time.Now()
	res, err := hc.Do(req)
	if err != nil {
		slog.Error("HTTP request failed.", "request_id", r.ID, "method", r.Method, "url", req.URL.String(), "reason", err)
		return nil, fmt.Errorf("%s %s: %w", r.Method, req.URL.Redacted(), err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	slog.Debug("HTTP request done.", "request_id", r.ID, "method", r.Method, "url", req.URL.String(), "status", res.StatusCode, "duration", time.Since(start))
	return newResponse(res, body), nil
}
