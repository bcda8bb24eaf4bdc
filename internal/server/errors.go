package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cxuy/cxkit/internal/rpc"
)

// Error lets an endpoint choose the reply status and business code of a
// failure. Other errors returned by endpoints reply 500 Failure.
type Error struct {
	Status int
	Code   rpc.BusinessCode
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(status int, code rpc.BusinessCode, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(err error) *Error {
	return NewError(http.StatusBadRequest, rpc.ParamsError, err)
}

func Unauthorized(err error) *Error {
	return NewError(http.StatusUnauthorized, rpc.Failure, err)
}

func Conflict(err error) *Error {
	return NewError(http.StatusConflict, rpc.Failure, err)
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e, true
	}
	return nil, false
}
