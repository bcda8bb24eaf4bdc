package httpclient

// Interceptor observes the stages of a request. BeforeExecute may change
// the request headers.
type Interceptor interface {
	BeforeSubmit(c *Client, r *Request)
	Submitted(c *Client, r *Request, ok bool)
	BeforeExecute(c *Client, r *Request)
	Executed(c *Client, r *Request, resp *Response, err error)
}

// InterceptorFuncs is an Interceptor built from optional funcs. Pass it by
// pointer so that it can be removed later.
type InterceptorFuncs struct {
	BeforeSubmitFunc  func(c *Client, r *Request)
	SubmittedFunc     func(c *Client, r *Request, ok bool)
	BeforeExecuteFunc func(c *Client, r *Request)
	ExecutedFunc      func(c *Client, r *Request, resp *Response, err error)
}

var _ Interceptor = (*InterceptorFuncs)(nil)

func (f *InterceptorFuncs) BeforeSubmit(c *Client, r *Request) {
	if f.BeforeSubmitFunc != nil {
		f.BeforeSubmitFunc(c, r)
	}
}

func (f *InterceptorFuncs) Submitted(c *Client, r *Request, ok bool) {
	if f.SubmittedFunc != nil {
		f.SubmittedFunc(c, r, ok)
	}
}

func (f *InterceptorFuncs) BeforeExecute(c *Client, r *Request) {
	if f.BeforeExecuteFunc != nil {
		f.BeforeExecuteFunc(c, r)
	}
}

func (f *InterceptorFuncs) Executed(c *Client, r *Request, resp *Response, err error) {
	if f.ExecutedFunc != nil {
		f.ExecutedFunc(c, r, resp, err)
	}
}

// BearerToken sets "Authorization: Bearer <token>" on requests that carry
// no Authorization header. Nothing is set when token returns "" or fails.
func BearerToken(token func() (string, error)) *InterceptorFuncs {
	return &InterceptorFuncs{
		BeforeExecuteFunc: func(_ *Client, r *Request) {
			if _, ok := r.Header(headerAuthorization); ok {
				return
			}
			t, err := token()
			if err != nil || t == "" {
				return
			}
			r.SetHeader(headerAuthorization, "Bearer "+t)
		},
	}
}
