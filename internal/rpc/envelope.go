// Package rpc defines the JSON envelope every server reply is wrapped in.
package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	timex "github.com/cxuy/cxkit/internal/pkg/time"
)

// BusinessCode tells the caller how the request was handled, independent of
// the HTTP status.
type BusinessCode int

const (
	Successful  BusinessCode = 200
	Failure     BusinessCode = 201
	ParamsError BusinessCode = 202
)

func (c BusinessCode) String() string {
	switch c {
	case Successful:
		return "successful"
	case Failure:
		return "failure"
	case ParamsError:
		return "params_error"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// Envelope is the reply body: {"timestamp","message","code","data"}.
type Envelope[T any] struct {
	Timestamp string       `json:"timestamp"`
	Message   string       `json:"message"`
	Code      BusinessCode `json:"code"`
	Data      T            `json:"data"`
}

var now = time.Now

func newEnvelope[T any](message string, code BusinessCode, data T) Envelope[T] {
	return Envelope[T]{
		Timestamp: timex.Timestamp(now()),
		Message:   message,
		Code:      code,
		Data:      data,
	}
}

// Empty returns a successful envelope without message or data.
func Empty() Envelope[any] {
	return newEnvelope[any]("", Successful, nil)
}

// Fail returns an envelope without data carrying code.
func Fail(code BusinessCode) Envelope[any] {
	return newEnvelope[any]("", code, nil)
}

// FailWith returns a failure envelope carrying message and data.
func FailWith[T any](code BusinessCode, message string, data T) Envelope[T] {
	return newEnvelope(message, code, data)
}

func Success[T any](message string, data T) Envelope[T] {
	return newEnvelope(message, Successful, data)
}

func (e Envelope[T]) OK() bool {
	return e.Code == Successful
}

func Encode[T any](e Envelope[T]) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return b, nil
}

func Decode[T any](data []byte) (Envelope[T], error) {
	var e Envelope[T]
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}
