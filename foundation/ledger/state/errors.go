package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/workqueue"
)

// Set of expected errors returned by the core API.
var (
	ErrAddressNotFound     = errors.New("address not found")
	ErrSenderNotFound      = errors.New("sender address not found")
	ErrNameNotFound        = errors.New("name not found")
	ErrBlockNotFound       = errors.New("block not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNameTaken         = errors.New("name already taken")
	ErrNotNameOwner      = errors.New("not the owner of the name")

	ErrMiningDisabled       = errors.New("mining is disabled")
	ErrTransactionsDisabled = errors.New("transactions are disabled")
)

// Reasons a parameter can be rejected.
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// ParameterError is returned when a request argument is missing or fails
// its grammar.
type ParameterError struct {
	Field  string
	Reason string
}

func missing(field string) error {
	return &ParameterError{Field: field, Reason: ReasonMissing}
}

func invalid(field string) error {
	return &ParameterError{Field: field, Reason: ReasonInvalid}
}

// Error implements the error interface.
func (pe *ParameterError) Error() string {
	return fmt.Sprintf("%s parameter %s", pe.Reason, pe.Field)
}

// RequestIDConflictError is returned when a request id is replayed with
// different arguments. Field names the first argument that differs.
type RequestIDConflictError struct {
	Field string
}

// Error implements the error interface.
func (rc *RequestIDConflictError) Error() string {
	return fmt.Sprintf("request id reused with a different %s", rc.Field)
}

// =============================================================================

// ErrorCode maps an error onto the stable code reported to clients.
func ErrorCode(err error) string {
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Reason + "_parameter"
	}

	var rc *RequestIDConflictError
	if errors.As(err, &rc) {
		return "transaction_conflict"
	}

	switch {
	case errors.Is(err, ErrAddressNotFound), errors.Is(err, ErrSenderNotFound):
		return "address_not_found"
	case errors.Is(err, ErrNameNotFound):
		return "name_not_found"
	case errors.Is(err, ErrBlockNotFound):
		return "block_not_found"
	case errors.Is(err, ErrTransactionNotFound):
		return "transaction_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrNotNameOwner):
		return "not_name_owner"
	case errors.Is(err, ErrMiningDisabled):
		return "mining_disabled"
	case errors.Is(err, ErrTransactionsDisabled):
		return "transactions_disabled"
	case errors.Is(err, workqueue.ErrQueueTimeout), errors.Is(err, workqueue.ErrQueueClosed):
		return "server_busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request_canceled"
	}

	return "internal_error"
}

// IsExpected reports whether the error is part of the public error set
// rather than a store or programming failure.
func IsExpected(err error) bool {
	return ErrorCode(err) != "internal_error"
}
