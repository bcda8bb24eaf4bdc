package httpclient

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMethod = errors.New("httpclient: invalid method")

type Method string

const (
	GET     Method = "GET"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	HEAD    Method = "HEAD"
	OPTIONS Method = "OPTIONS"
	PATCH   Method = "PATCH"
)

func (m Method) Valid() bool {
	switch m {
	case GET, POST, PUT, DELETE, HEAD, OPTIONS, PATCH:
		return true
	}
	return false
}

// hasQueryParams reports whether params are sent in the query string
// instead of the body.
func (m Method) hasQueryParams() bool {
	return m == GET || m == HEAD
}

// ParseMethod returns the Method named s, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}
