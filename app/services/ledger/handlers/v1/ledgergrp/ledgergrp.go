// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
)

// ErrAuthFailed is returned when the private key does not own the address.
var ErrAuthFailed = errors.New("authentication failed")

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log             *zap.SugaredLogger
	State           *state.State
	Evts            *events.Events[state.Event]
	WS              websocket.Upgrader
	AllowLegacyAuth bool
}

// Login reports the address a private key controls.
func (h Handlers) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req authRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	addr, err := h.auth(req)
	if err != nil {
		return err
	}

	resp := struct {
		OK      bool   `json:"ok"`
		Authed  bool   `json:"authed"`
		Address string `json:"address"`
	}{
		OK:      true,
		Authed:  true,
		Address: addr,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transfer moves value from the caller to an address or name.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req transferRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	from, err := h.auth(req.authRequest)
	if err != nil {
		return err
	}

	h.Log.Infow("transfer", "traceid", v.TraceID, "from", from, "to", req.To, "amount", req.Amount)

	tx, err := h.State.Transfer(ctx, state.TransferRequest{
		From:      from,
		To:        req.To,
		Amount:    req.Amount,
		Metadata:  req.Metadata,
		RequestID: req.RequestID,
	})
	if err != nil {
		return err
	}

	resp := struct {
		OK          bool           `json:"ok"`
		Transaction appTransaction `json:"transaction"`
	}{
		OK:          true,
		Transaction: toAppTransaction(tx),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryTransaction returns the transaction with the id.
func (h Handlers) QueryTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return &state.ParameterError{Field: "id", Reason: state.ReasonInvalid}
	}

	tx, err := h.State.QueryTransaction(ctx, id)
	if err != nil {
		return err
	}

	resp := struct {
		OK          bool           `json:"ok"`
		Transaction appTransaction `json:"transaction"`
	}{
		OK:          true,
		Transaction: toAppTransaction(tx),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryAddress returns the balance and totals of an address.
func (h Handlers) QueryAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := web.Param(r, "address")
	if !address.IsValid(addr, true) {
		return &state.ParameterError{Field: "address", Reason: state.ReasonInvalid}
	}

	row, err := h.State.QueryAddress(ctx, addr)
	if err != nil {
		return err
	}

	resp := struct {
		OK      bool       `json:"ok"`
		Address appAddress `json:"address"`
	}{
		OK:      true,
		Address: toAppAddress(row),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// RegisterName buys the name in the path for the caller.
func (h Handlers) RegisterName(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req authRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	buyer, err := h.auth(req)
	if err != nil {
		return err
	}

	name, err := h.State.RegisterName(ctx, buyer, web.Param(r, "name"))
	if err != nil {
		return err
	}

	return respondName(ctx, w, name)
}

// TransferName hands the name in the path to a new owner.
func (h Handlers) TransferName(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req nameTransferRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	caller, err := h.auth(req.authRequest)
	if err != nil {
		return err
	}

	name, err := h.State.TransferName(ctx, web.Param(r, "name"), req.Address, caller)
	if err != nil {
		return err
	}

	return respondName(ctx, w, name)
}

// UpdateNameRecord sets the data record of the name in the path.
func (h Handlers) UpdateNameRecord(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req nameRecordRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	caller, err := h.auth(req.authRequest)
	if err != nil {
		return err
	}

	name, err := h.State.UpdateNameRecord(ctx, web.Param(r, "name"), req.Record, caller)
	if err != nil {
		return err
	}

	return respondName(ctx, w, name)
}

// QueryName returns the name in the path.
func (h Handlers) QueryName(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name, err := h.State.QueryName(ctx, web.Param(r, "name"))
	if err != nil {
		return err
	}

	return respondName(ctx, w, name)
}

// NameCost returns the price of a name.
func (h Handlers) NameCost(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		OK       bool   `json:"ok"`
		NameCost uint64 `json:"name_cost"`
	}{
		OK:       true,
		NameCost: h.State.NameCost(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// SubmitBlock checks a mining solution. A losing solution is not an error
// and is reported with a reason.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	sub, err := h.State.SubmitBlock(ctx, req.Address, []byte(req.Nonce))
	if err != nil {
		return err
	}

	if !sub.Success {
		resp := struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
			Work  uint64 `json:"work"`
		}{
			OK:    false,
			Error: sub.Reason,
			Work:  sub.Work,
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}

	resp := struct {
		OK      bool     `json:"ok"`
		Success bool     `json:"success"`
		Work    uint64   `json:"work"`
		Address string   `json:"address"`
		Block   appBlock `json:"block"`
	}{
		OK:      true,
		Success: true,
		Work:    sub.Work,
		Address: sub.Block.Address,
		Block:   toAppBlock(sub.Block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryBlock returns the block at the height in the path.
func (h Handlers) QueryBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return &state.ParameterError{Field: "height", Reason: state.ReasonInvalid}
	}

	return h.respondBlock(ctx, w, height)
}

// LatestBlock returns the most recent block.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.respondBlock(ctx, w, state.QueryLatest)
}

// Work returns the work target for the next block.
func (h Handlers) Work(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	work, err := h.State.Work(ctx)
	if err != nil {
		return err
	}

	resp := struct {
		OK   bool   `json:"ok"`
		Work uint64 `json:"work"`
	}{
		OK:   true,
		Work: work,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stats returns the ledger aggregates.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.QueryStats(ctx)
	if err != nil {
		return err
	}

	resp := struct {
		OK    bool     `json:"ok"`
		Stats appStats `json:"stats"`
	}{
		OK:    true,
		Stats: toAppStats(stats),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// SetMining turns block submission on or off.
func (h Handlers) SetMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req switchRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	h.State.SetMiningEnabled(*req.Enabled)
	h.Log.Infow("switch", "traceid", web.GetTraceID(ctx), "mining", *req.Enabled)

	return h.Status(ctx, w, r)
}

// SetTransactions turns transfers and name operations on or off.
func (h Handlers) SetTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req switchRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	h.State.SetTransactionsEnabled(*req.Enabled)
	h.Log.Infow("switch", "traceid", web.GetTraceID(ctx), "transactions", *req.Enabled)

	return h.Status(ctx, w, r)
}

// Status reports the feature switches and the number of event subscribers.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		OK                  bool `json:"ok"`
		MiningEnabled       bool `json:"mining_enabled"`
		TransactionsEnabled bool `json:"transactions_enabled"`
		Subscribers         int  `json:"subscribers"`
	}{
		OK:                  true,
		MiningEnabled:       h.State.MiningEnabled(),
		TransactionsEnabled: h.State.TransactionsEnabled(),
		Subscribers:         h.Evts.Len(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// auth resolves the address a private key controls. A legacy address is
// accepted only when named in the request and enabled.
func (h Handlers) auth(req authRequest) (string, error) {
	if req.From == "" {
		return address.MakeV2(req.PrivateKey), nil
	}

	if !address.Verify(req.PrivateKey, req.From, h.AllowLegacyAuth) {
		return "", errs.NewTrusted(ErrAuthFailed, http.StatusUnauthorized, "auth_failed")
	}

	return address.Canonical(req.From), nil
}

// decode reads the request body. Bodies that are not valid JSON are
// reported as a bad parameter.
func decode(r *http.Request, val any) error {
	err := web.Decode(r, val)
	if err == nil || validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewTrusted(err, http.StatusBadRequest, "invalid_parameter")
}

func (h Handlers) respondBlock(ctx context.Context, w http.ResponseWriter, height uint64) error {
	block, err := h.State.QueryBlock(ctx, height)
	if err != nil {
		return err
	}

	resp := struct {
		OK    bool     `json:"ok"`
		Block appBlock `json:"block"`
	}{
		OK:    true,
		Block: toAppBlock(block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

func respondName(ctx context.Context, w http.ResponseWriter, name database.Name) error {
	resp := struct {
		OK   bool    `json:"ok"`
		Name appName `json:"name"`
	}{
		OK:   true,
		Name: toAppName(name),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
