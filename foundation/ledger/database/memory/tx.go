package memory

import (
	"context"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// delta holds the staged balance movement for one address.
type delta struct {
	in        uint64
	out       uint64
	firstSeen time.Time
}

// memTx stages changes until commit. Reads inside the transaction see the
// committed rows with the staged changes applied on top. This implements
// the database.Tx interface.
type memTx struct {
	m    *Memory
	held []string

	deltas        map[string]*delta
	trans         []database.Transaction
	names         map[string]database.Name
	insertedNames map[string]struct{}
	blocks        []database.Block
	decays        int
}

func newMemTx(m *Memory) *memTx {
	return &memTx{
		m:             m,
		deltas:        make(map[string]*delta),
		names:         make(map[string]database.Name),
		insertedNames: make(map[string]struct{}),
	}
}

// releaseLocks frees every row lock the transaction acquired.
func (tx *memTx) releaseLocks() {
	for _, key := range tx.held {
		tx.m.locks.release(key)
	}
	tx.held = nil
}

func (tx *memTx) lock(ctx context.Context, key string) error {
	for _, held := range tx.held {
		if held == key {
			return nil
		}
	}

	if err := tx.m.locks.acquire(ctx, key); err != nil {
		return err
	}
	tx.held = append(tx.held, key)

	return nil
}

// =============================================================================

// LockAddress locks the address row and returns its current view.
func (tx *memTx) LockAddress(ctx context.Context, addr string) (database.Address, error) {
	if err := tx.lock(ctx, "address:"+addr); err != nil {
		return database.Address{}, err
	}

	row, exists := tx.viewAddress(addr)
	if !exists {
		return database.Address{}, database.ErrNotFound
	}
	return row, nil
}

// Credit stages an incoming amount for the address.
func (tx *memTx) Credit(ctx context.Context, addr string, amount uint64, now time.Time) (bool, error) {
	_, exists := tx.viewAddress(addr)

	d := tx.delta(addr, now)
	d.in += amount

	return !exists, nil
}

// Debit stages an outgoing amount for the address.
func (tx *memTx) Debit(ctx context.Context, addr string, amount uint64) error {
	row, exists := tx.viewAddress(addr)
	if !exists {
		return database.ErrNotFound
	}
	if row.Balance < amount {
		return database.ErrOverdraft
	}

	d := tx.delta(addr, row.FirstSeen)
	d.out += amount

	return nil
}

// InsertTransaction stages the transaction and assigns its id.
func (tx *memTx) InsertTransaction(ctx context.Context, tran database.Transaction) (database.Transaction, error) {
	if tran.RequestID != nil {
		if _, err := tx.QueryTransactionByRequestID(ctx, *tran.RequestID); err == nil {
			return database.Transaction{}, database.ErrDuplicate
		}
	}

	tran.ID = tx.m.nextTxID.Add(1)
	tx.trans = append(tx.trans, tran)

	return tran, nil
}

// QueryTransactionByRequestID finds a transaction by its idempotency token.
func (tx *memTx) QueryTransactionByRequestID(ctx context.Context, requestID string) (database.Transaction, error) {
	for _, tran := range tx.trans {
		if tran.RequestID != nil && *tran.RequestID == requestID {
			return tran, nil
		}
	}

	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()

	id, exists := tx.m.requestIDs[requestID]
	if !exists {
		return database.Transaction{}, database.ErrNotFound
	}
	return tx.m.trans[id], nil
}

// QueryName returns the current view of the name without locking it.
func (tx *memTx) QueryName(ctx context.Context, name string) (database.Name, error) {
	row, exists := tx.viewName(name)
	if !exists {
		return database.Name{}, database.ErrNotFound
	}
	return row, nil
}

// LockName locks the name row and returns its current view.
func (tx *memTx) LockName(ctx context.Context, name string) (database.Name, error) {
	if err := tx.lock(ctx, "name:"+name); err != nil {
		return database.Name{}, err
	}
	return tx.QueryName(ctx, name)
}

// InsertName stages a new name row.
func (tx *memTx) InsertName(ctx context.Context, name database.Name) error {
	if _, exists := tx.viewName(name.Name); exists {
		return database.ErrDuplicate
	}

	tx.names[name.Name] = name
	tx.insertedNames[name.Name] = struct{}{}

	return nil
}

// UpdateName stages new values for an existing name row.
func (tx *memTx) UpdateName(ctx context.Context, name database.Name) error {
	if _, exists := tx.viewName(name.Name); !exists {
		return database.ErrNotFound
	}

	tx.names[name.Name] = name
	return nil
}

// CountUnpaidNames counts the names still paying into the block reward.
func (tx *memTx) CountUnpaidNames(ctx context.Context) (uint64, error) {
	var count uint64
	for _, row := range tx.viewNames() {
		if row.Unpaid > 0 {
			count++
		}
	}
	return count, nil
}

// DecayUnpaidNames stages one decrement of every positive unpaid counter.
func (tx *memTx) DecayUnpaidNames(ctx context.Context) (uint64, error) {
	count, err := tx.CountUnpaidNames(ctx)
	if err != nil {
		return 0, err
	}

	tx.decays++
	return count, nil
}

// LatestBlock returns the staged block if there is one, otherwise the
// committed latest block.
func (tx *memTx) LatestBlock(ctx context.Context) (database.Block, error) {
	if n := len(tx.blocks); n > 0 {
		return tx.blocks[n-1], nil
	}
	return tx.m.LatestBlock(ctx)
}

// InsertBlock stages the block.
func (tx *memTx) InsertBlock(ctx context.Context, block database.Block) error {
	tx.m.mu.RLock()
	_, heightTaken := tx.m.blocks[block.Height]
	_, hashTaken := tx.m.hashes[block.Hash]
	tx.m.mu.RUnlock()

	if heightTaken || hashTaken {
		return database.ErrDuplicate
	}

	tx.blocks = append(tx.blocks, block)
	return nil
}

// =============================================================================

func (tx *memTx) delta(addr string, firstSeen time.Time) *delta {
	d, exists := tx.deltas[addr]
	if !exists {
		d = &delta{firstSeen: firstSeen}
		tx.deltas[addr] = d
	}
	return d
}

func (tx *memTx) viewAddress(addr string) (database.Address, bool) {
	tx.m.mu.RLock()
	row, exists := tx.m.addresses[addr]
	tx.m.mu.RUnlock()

	d, staged := tx.deltas[addr]
	if !exists && !staged {
		return database.Address{}, false
	}

	if !exists {
		row = database.Address{Address: addr, FirstSeen: d.firstSeen}
	}
	if staged {
		row.Balance = row.Balance + d.in - d.out
		row.TotalIn += d.in
		row.TotalOut += d.out
	}

	return row, true
}

func (tx *memTx) viewName(name string) (database.Name, bool) {
	if row, staged := tx.names[name]; staged {
		return row, true
	}

	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()

	row, exists := tx.m.names[name]
	if !exists {
		return database.Name{}, false
	}
	for i := 0; i < tx.decays && row.Unpaid > 0; i++ {
		row.Unpaid--
	}
	return row, true
}

func (tx *memTx) viewNames() map[string]database.Name {
	tx.m.mu.RLock()
	names := make(map[string]database.Name, len(tx.m.names)+len(tx.names))
	for name, row := range tx.m.names {
		names[name] = row
	}
	tx.m.mu.RUnlock()

	for name, row := range tx.names {
		names[name] = row
	}

	for name, row := range names {
		for i := 0; i < tx.decays && row.Unpaid > 0; i++ {
			row.Unpaid--
		}
		names[name] = row
	}

	return names
}
