package processor

import (
	"errors"
	"net/http"

	"github.com/smarttransit/route-ledger/internal/services"
)

// Exit codes of the one-shot command
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitFatal   = 2
)

// Result is the outcome of one command. Body is the success payload; on
// failure Err is set and Payload renders {"error": "..."}.
type Result struct {
	Body interface{}
	Err  error
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Payload returns the JSON value to write for this result
func (r Result) Payload() interface{} {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}
	}
	return r.Body
}

// ExitCode maps the result onto the one-shot process exit code
func (r Result) ExitCode() int {
	switch {
	case r.Err == nil:
		return ExitOK
	case services.IsStorageError(r.Err):
		return ExitFatal
	default:
		return ExitFailure
	}
}

// HTTPStatus maps the result onto an HTTP status code
func (r Result) HTTPStatus() int {
	switch {
	case r.Err == nil:
		return http.StatusOK
	case services.IsStorageError(r.Err):
		return http.StatusInternalServerError
	case errors.Is(r.Err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(r.Err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(r.Err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func failed(err error) Result {
	return Result{Err: err}
}

func succeeded(body interface{}) Result {
	return Result{Body: body}
}
