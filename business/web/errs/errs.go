// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/validate"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
	Code   string
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int, code string) error {
	return &Trusted{err, status, code}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap gives errors.Is access to the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// FromError converts any error a handler returns into the response body and
// status sent to the client. Errors outside the public set are hidden.
func FromError(err error) (Response, int) {
	if re := GetTrusted(err); re != nil {
		return Response{Error: re.Error(), Code: re.Code}, re.Status
	}

	if fe := validate.GetFieldErrors(err); fe != nil {
		code := "invalid_parameter"
		if fe.Missing() {
			code = "missing_parameter"
		}
		return Response{Error: "data validation error", Code: code, Fields: fe.Fields()}, http.StatusBadRequest
	}

	code := state.ErrorCode(err)
	if code == "internal_error" {
		return Response{Error: http.StatusText(http.StatusInternalServerError), Code: code}, http.StatusInternalServerError
	}

	return Response{Error: err.Error(), Code: code}, Status(code)
}

// Status returns the HTTP status for a public error code.
func Status(code string) int {
	switch code {
	case "missing_parameter", "invalid_parameter":
		return http.StatusBadRequest
	case "address_not_found", "name_not_found", "block_not_found", "transaction_not_found":
		return http.StatusNotFound
	case "insufficient_funds", "name_taken", "transaction_conflict":
		return http.StatusConflict
	case "not_name_owner":
		return http.StatusForbidden
	case "mining_disabled", "transactions_disabled", "server_busy":
		return http.StatusServiceUnavailable
	case "request_canceled":
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}
