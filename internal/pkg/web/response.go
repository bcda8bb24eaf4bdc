package web

import (
	"log/slog"
	"net/http"

	"github.com/ferdiebergado/gopherkit/http/response"

	"github.com/cxuy/cxkit/internal/rpc"
)

// Reply writes env as the JSON body with the given HTTP status.
//
// Every reply of the server goes through Reply so that clients can always
// decode the body as an rpc.Envelope:
//
//	{
//	  "timestamp": "2025-01-02 15:04:05",
//	  "message": "handle successful",
//	  "code": 200,
//	  "data": {"id": 1}
//	}
func Reply[T any](w http.ResponseWriter, status int, env rpc.Envelope[T]) {
	response.JSON(w, status, env)
}

// OK replies 200 with a successful envelope carrying msg and data.
func OK[T any](w http.ResponseWriter, msg string, data T) {
	Reply(w, http.StatusOK, rpc.Success(msg, data))
}

// Fail logs reason and replies status with an envelope carrying code.
func Fail(w http.ResponseWriter, status int, reason error, code rpc.BusinessCode) {
	slog.Error("request failed", "reason", reason, "status", status, "code", code)
	Reply(w, status, rpc.Fail(code))
}

// FailWith logs reason and replies status with an envelope carrying code,
// msg and details such as validation errors.
func FailWith[T any](w http.ResponseWriter, status int, reason error, code rpc.BusinessCode, msg string, details T) {
	slog.Error("request failed", "reason", reason, "status", status, "code", code)
	Reply(w, status, rpc.FailWith(code, msg, details))
}

// ServerError replies 500 with a failure envelope. The error is only logged.
func ServerError(w http.ResponseWriter, err error) {
	Fail(w, http.StatusInternalServerError, err, rpc.Failure)
}
