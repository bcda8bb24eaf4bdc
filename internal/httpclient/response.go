package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cxuy/cxkit/internal/rpc"
)

type Response struct {
	StatusCode int
	// Status is the reason phrase, "OK" for 200.
	Status string
	// Header holds the first value of every response header.
	Header map[string]string
	Body   []byte
}

func newResponse(res *http.Response, body []byte) *Response {
	header := make(map[string]string, len(res.Header))
	for k, vs := range res.Header {
		if len(vs) > 0 {
			header[k] = vs[0]
		}
	}
	return &Response{
		StatusCode: res.StatusCode,
		Status:     strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)+" "),
		Header:     header,
		Body:       body,
	}
}

func (r *Response) String() string {
	return string(r.Body)
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) JSON(dst any) error {
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Get reads path from a JSON body, for example "data.id".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Envelope decodes the body as an envelope carrying T.
func Envelope[T any](r *Response) (rpc.Envelope[T], error) {
	return rpc.Decode[T](r.Body)
}
