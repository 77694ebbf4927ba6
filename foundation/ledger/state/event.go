package state

import "github.com/ardanlabs/ledger/foundation/ledger/database"

// Set of event kinds.
const (
	KindTransaction = "transaction"
	KindBlock       = "block"
	KindName        = "name"
)

// NameAction identifies what happened to a name.
type NameAction string

// Set of name actions.
const (
	NamePurchase NameAction = "purchase"
	NameTransfer NameAction = "transfer"
	NameRecord   NameAction = "record"
)

// Event is one of TransactionEvent, BlockEvent or NameEvent.
type Event interface {
	Kind() string

	// Involves reports whether the address took part in the event.
	Involves(address string) bool

	isEvent()
}

// TransactionEvent is published for every committed transaction.
type TransactionEvent struct {
	Transaction database.Transaction
}

// Kind implements the Event interface.
func (TransactionEvent) Kind() string { return KindTransaction }

// Involves implements the Event interface.
func (e TransactionEvent) Involves(address string) bool {
	return e.Transaction.FromAddress() == address || e.Transaction.To == address
}

func (TransactionEvent) isEvent() {}

// BlockEvent is published for every accepted block with the work target
// for the next one.
type BlockEvent struct {
	Block   database.Block
	NewWork uint64
}

// Kind implements the Event interface.
func (BlockEvent) Kind() string { return KindBlock }

// Involves implements the Event interface.
func (e BlockEvent) Involves(address string) bool {
	return e.Block.Address == address
}

func (BlockEvent) isEvent() {}

// NameEvent is published for every change to a name.
type NameEvent struct {
	Name   database.Name
	Action NameAction

	// Previous is the owner before a transfer.
	Previous string
}

// Kind implements the Event interface.
func (NameEvent) Kind() string { return KindName }

// Involves implements the Event interface.
func (e NameEvent) Involves(address string) bool {
	return e.Name.Owner == address || (e.Previous != "" && e.Previous == address)
}

func (NameEvent) isEvent() {}

// =============================================================================

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
