// Package database defines the rows the ledger persists and the behavior
// required from any store that holds them.
package database

import (
	"context"
	"errors"
	"time"
)

// Set of errors every store implementation must translate its own
// failures into.
var (
	ErrNotFound  = errors.New("row not found")
	ErrDuplicate = errors.New("duplicate row")
	ErrOverdraft = errors.New("balance would go negative")
)

// GenesisHash is the hash of block 1, the fixed base of the chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Sentinel recipients used by the name economy bookkeeping transactions.
const (
	ToName   = "name"
	ToRecord = "a"
)

// =============================================================================

// Store represents the behavior required to be implemented by any package
// providing persistence for the ledger.
type Store interface {
	Reader

	// InTx runs fn inside one store transaction. When fn returns an error
	// every change made through the Tx is rolled back and the row locks it
	// acquired are released.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// SetWork stores the work target for the next block submission.
	SetWork(ctx context.Context, work uint64) error

	Close() error
}

// Reader represents the read behavior that runs outside of a transaction.
type Reader interface {
	QueryAddress(ctx context.Context, address string) (Address, error)
	QueryName(ctx context.Context, name string) (Name, error)
	QueryTransaction(ctx context.Context, id uint64) (Transaction, error)
	QueryBlock(ctx context.Context, height uint64) (Block, error)
	LatestBlock(ctx context.Context) (Block, error)
	Work(ctx context.Context) (uint64, error)

	CountAddresses(ctx context.Context) (uint64, error)
	CountNames(ctx context.Context) (uint64, error)
	CountTransactions(ctx context.Context) (uint64, error)
	CountBlocks(ctx context.Context) (uint64, error)
	Supply(ctx context.Context) (uint64, error)
}

// Tx represents the behavior available inside a store transaction. Balance
// changes are expressed as deltas so concurrent credits to the same row
// never overwrite each other.
type Tx interface {

	// LockAddress reads the address row and holds a lock on it until the
	// transaction ends.
	LockAddress(ctx context.Context, address string) (Address, error)

	// Credit adds amount to the balance and totalin of the address, creating
	// the row with amount as its opening balance when it does not exist.
	Credit(ctx context.Context, address string, amount uint64, now time.Time) (created bool, err error)

	// Debit removes amount from the balance and adds it to totalout. The
	// caller must hold the row lock.
	Debit(ctx context.Context, address string, amount uint64) error

	// InsertTransaction appends the transaction and returns it with its id.
	// A request id collision returns ErrDuplicate.
	InsertTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	QueryTransactionByRequestID(ctx context.Context, requestID string) (Transaction, error)

	QueryName(ctx context.Context, name string) (Name, error)
	LockName(ctx context.Context, name string) (Name, error)
	InsertName(ctx context.Context, name Name) error
	UpdateName(ctx context.Context, name Name) error

	// CountUnpaidNames returns the number of names with unpaid > 0.
	CountUnpaidNames(ctx context.Context) (uint64, error)

	// DecayUnpaidNames decrements unpaid by one on every name with
	// unpaid > 0 and returns the number of rows touched.
	DecayUnpaidNames(ctx context.Context) (uint64, error)

	LatestBlock(ctx context.Context) (Block, error)

	// InsertBlock stores the block at its height. A height or hash that
	// already exists returns ErrDuplicate.
	InsertBlock(ctx context.Context, block Block) error
}

// =============================================================================

// Address represents an account holding a balance.
type Address struct {
	Address   string
	Balance   uint64
	TotalIn   uint64
	TotalOut  uint64
	FirstSeen time.Time
	Alert     string
	Locked    bool
}

// Transaction represents one entry in the append-only transaction log. A nil
// From means the value was mined.
type Transaction struct {
	ID           uint64
	From         *string
	To           string
	Value        uint64
	Time         time.Time
	Name         string
	Metadata     string
	SentMetaname string
	SentName     string
	RequestID    *string
}

// IsMined reports whether the transaction is a block reward.
func (tx Transaction) IsMined() bool {
	return tx.From == nil
}

// FromAddress returns the sender or an empty string for mined value.
func (tx Transaction) FromAddress() string {
	if tx.From == nil {
		return ""
	}
	return *tx.From
}

// Block represents a proof of work solution that minted value.
type Block struct {
	Height     uint64
	Hash       string
	Address    string
	Nonce      []byte
	Value      uint64
	Difficulty uint64
	Time       time.Time
}

// ShortHash returns the first 12 hex characters of the block hash which
// seed the next solution.
func (b Block) ShortHash() string {
	if len(b.Hash) < 12 {
		return b.Hash
	}
	return b.Hash[:12]
}

// Name represents an ownable label that can receive payments.
type Name struct {
	Name          string
	Owner         string
	OriginalOwner string
	Registered    time.Time
	Updated       time.Time
	Transferred   *time.Time
	Record        string
	Unpaid        uint64
}

// GenesisBlock returns block 1.
func GenesisBlock(ts time.Time) Block {
	return Block{
		Height:     1,
		Hash:       GenesisHash,
		Address:    "0000000000",
		Nonce:      []byte{0},
		Difficulty: 0,
		Time:       ts,
	}
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
