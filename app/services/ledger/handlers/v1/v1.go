// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log             *zap.SugaredLogger
	State           *state.State
	Evts            *events.Events[state.Event]
	AllowLegacyAuth bool
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:             cfg.Log,
		State:           cfg.State,
		Evts:            cfg.Evts,
		AllowLegacyAuth: cfg.AllowLegacyAuth,
	}

	app.Handle(http.MethodGet, version, "/events", lgh.Events)
	app.Handle(http.MethodPost, version, "/login", lgh.Login)

	app.Handle(http.MethodGet, version, "/addresses/:address", lgh.QueryAddress)

	app.Handle(http.MethodPost, version, "/transactions", lgh.Transfer)
	app.Handle(http.MethodGet, version, "/transactions/:id", lgh.QueryTransaction)

	app.Handle(http.MethodGet, version, "/names/cost", lgh.NameCost)
	app.Handle(http.MethodGet, version, "/names/:name", lgh.QueryName)
	app.Handle(http.MethodPost, version, "/names/:name", lgh.RegisterName)
	app.Handle(http.MethodPost, version, "/names/:name/transfer", lgh.TransferName)
	app.Handle(http.MethodPut, version, "/names/:name/update", lgh.UpdateNameRecord)

	app.Handle(http.MethodPost, version, "/submit", lgh.SubmitBlock)
	app.Handle(http.MethodGet, version, "/blocks/latest", lgh.LatestBlock)
	app.Handle(http.MethodGet, version, "/blocks/:height", lgh.QueryBlock)
	app.Handle(http.MethodGet, version, "/work", lgh.Work)
	app.Handle(http.MethodGet, version, "/stats", lgh.Stats)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/admin/status", lgh.Status)
	app.Handle(http.MethodPut, version, "/admin/mining", lgh.SetMining)
	app.Handle(http.MethodPut, version, "/admin/transactions", lgh.SetTransactions)
}
