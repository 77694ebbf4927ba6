package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/validate"
)

func TestFromError(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"trusted", errs.NewTrusted(errors.New("bad key"), http.StatusUnauthorized, "auth_failed"), http.StatusUnauthorized, "auth_failed"},
		{"parameter", &state.ParameterError{Field: "to", Reason: state.ReasonInvalid}, http.StatusBadRequest, "invalid_parameter"},
		{"wrapped funds", fmt.Errorf("transfer: %w", state.ErrInsufficientFunds), http.StatusConflict, "insufficient_funds"},
		{"not found", state.ErrNameNotFound, http.StatusNotFound, "name_not_found"},
		{"owner", state.ErrNotNameOwner, http.StatusForbidden, "not_name_owner"},
		{"disabled", state.ErrMiningDisabled, http.StatusServiceUnavailable, "mining_disabled"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			resp, status := errs.FromError(tst.err)
			require.Equal(t, tst.status, status)
			require.Equal(t, tst.code, resp.Code)
			require.False(t, resp.OK)
		})
	}
}

func TestFromError_Validation(t *testing.T) {
	type body struct {
		Address string `json:"address" validate:"required"`
	}

	resp, status := errs.FromError(validate.Check(body{}))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "missing_parameter", resp.Code)
	require.Contains(t, resp.Fields, "address")
}

func TestFromError_Internal(t *testing.T) {
	resp, _ := errs.FromError(errors.New("secret dsn leaked"))
	require.Equal(t, http.StatusText(http.StatusInternalServerError), resp.Error)
}
