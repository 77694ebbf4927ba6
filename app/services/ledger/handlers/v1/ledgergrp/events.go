package ledgergrp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/web"
)

// Set of subscription levels a client can ask for.
const (
	levelBlocks          = "blocks"
	levelOwnBlocks       = "ownBlocks"
	levelTransactions    = "transactions"
	levelOwnTransactions = "ownTransactions"
	levelNames           = "names"
	levelOwnNames        = "ownNames"
)

var defaultLevels = []string{levelOwnTransactions, levelBlocks}

// subscription decides which events a connected client receives. The own
// levels match events involving the authenticated address.
type subscription struct {
	levels  map[string]bool
	address string
}

func newSubscription(raw string, addr string) (subscription, error) {
	levels := defaultLevels
	if raw != "" {
		levels = strings.Split(raw, ",")
	}

	sub := subscription{
		levels:  make(map[string]bool, len(levels)),
		address: addr,
	}

	for _, lvl := range levels {
		switch lvl = strings.TrimSpace(lvl); lvl {
		case levelBlocks, levelOwnBlocks, levelTransactions, levelOwnTransactions, levelNames, levelOwnNames:
			sub.levels[lvl] = true
		default:
			return subscription{}, &state.ParameterError{Field: "subscribe", Reason: state.ReasonInvalid}
		}
	}

	return sub, nil
}

func (s subscription) accept(evt state.Event) bool {
	var all, own string

	switch evt.Kind() {
	case state.KindTransaction:
		all, own = levelTransactions, levelOwnTransactions
	case state.KindBlock:
		all, own = levelBlocks, levelOwnBlocks
	case state.KindName:
		all, own = levelNames, levelOwnNames
	default:
		return false
	}

	if s.levels[all] {
		return true
	}

	return s.levels[own] && s.address != "" && evt.Involves(s.address)
}

// =============================================================================

type eventMessage struct {
	Type        string          `json:"type"`
	Event       string          `json:"event"`
	Transaction *appTransaction `json:"transaction,omitempty"`
	Block       *appBlock       `json:"block,omitempty"`
	NewWork     uint64          `json:"new_work,omitempty"`
	Name        *appName        `json:"name,omitempty"`
	Action      string          `json:"action,omitempty"`
	Previous    string          `json:"previous_owner,omitempty"`
}

func toEventMessage(evt state.Event) eventMessage {
	msg := eventMessage{
		Type:  "event",
		Event: evt.Kind(),
	}

	switch e := evt.(type) {
	case state.TransactionEvent:
		tx := toAppTransaction(e.Transaction)
		msg.Transaction = &tx

	case state.BlockEvent:
		b := toAppBlock(e.Block)
		msg.Block = &b
		msg.NewWork = e.NewWork

	case state.NameEvent:
		n := toAppName(e.Name)
		msg.Name = &n
		msg.Action = string(e.Action)
		msg.Previous = e.Previous
	}

	return msg
}

// =============================================================================

// Events handles a web socket to provide events to a client. The subscribe
// query parameter lists the levels and the privatekey parameter
// authenticates the own levels.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var addr string
	if pk := r.URL.Query().Get("privatekey"); pk != "" {
		addr = address.MakeV2(pk)
	}

	sub, err := newSubscription(r.URL.Query().Get("subscribe"), addr)
	if err != nil {
		return err
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade hijacked the connection so no response will be written.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID, sub.accept)
	defer h.Evts.Release(v.TraceID)

	// Control frames are only processed while reading. The reader ends when
	// the client goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	hello := struct {
		Type    string `json:"type"`
		Address string `json:"address,omitempty"`
	}{
		Type:    "hello",
		Address: addr,
	}
	if err := c.WriteJSON(hello); err != nil {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(toEventMessage(evt)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-closed:
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}
