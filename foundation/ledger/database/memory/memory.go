// Package memory implements the ledger store in memory. Row locks are
// emulated with a lock token per key that a transaction holds until it
// commits or rolls back.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// Memory represents the in memory implementation of the ledger store. This
// implements the database.Store interface.
type Memory struct {
	mu         sync.RWMutex
	addresses  map[string]database.Address
	names      map[string]database.Name
	trans      map[uint64]database.Transaction
	requestIDs map[string]uint64
	blocks     map[uint64]database.Block
	hashes     map[string]uint64
	latest     uint64
	work       uint64
	workSet    bool

	nextTxID atomic.Uint64
	locks    *lockTable
}

// New constructs a Memory value seeded with the genesis block.
func New() *Memory {
	m := Memory{
		addresses:  make(map[string]database.Address),
		names:      make(map[string]database.Name),
		trans:      make(map[uint64]database.Transaction),
		requestIDs: make(map[string]uint64),
		blocks:     make(map[uint64]database.Block),
		hashes:     make(map[string]uint64),
		locks:      newLockTable(),
	}

	genesis := database.GenesisBlock(time.Now().UTC())
	m.blocks[genesis.Height] = genesis
	m.hashes[genesis.Hash] = genesis.Height
	m.latest = genesis.Height

	return &m
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Seed sets the starting balance of an address outside of the transaction
// log. It exists for genesis allocations and tests.
func (m *Memory) Seed(addr string, balance uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addresses[addr] = database.Address{
		Address:   addr,
		Balance:   balance,
		FirstSeen: time.Now().UTC(),
	}
}

// InTx runs fn inside a transaction. Staged changes are applied atomically
// when fn returns nil, otherwise they are discarded.
func (m *Memory) InTx(ctx context.Context, fn func(tx database.Tx) error) error {
	tx := newMemTx(m)
	defer tx.releaseLocks()

	if err := fn(tx); err != nil {
		return err
	}

	return m.commit(tx)
}

// SetWork stores the work target for the next block.
func (m *Memory) SetWork(ctx context.Context, work uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.work = work
	m.workSet = true
	return nil
}

// =============================================================================

// QueryAddress returns the specified address row.
func (m *Memory) QueryAddress(ctx context.Context, addr string) (database.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, exists := m.addresses[addr]
	if !exists {
		return database.Address{}, database.ErrNotFound
	}
	return row, nil
}

// QueryName returns the specified name row.
func (m *Memory) QueryName(ctx context.Context, name string) (database.Name, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, exists := m.names[name]
	if !exists {
		return database.Name{}, database.ErrNotFound
	}
	return row, nil
}

// QueryTransaction returns the transaction with the specified id.
func (m *Memory) QueryTransaction(ctx context.Context, id uint64) (database.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, exists := m.trans[id]
	if !exists {
		return database.Transaction{}, database.ErrNotFound
	}
	return row, nil
}

// QueryBlock returns the block at the specified height.
func (m *Memory) QueryBlock(ctx context.Context, height uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, exists := m.blocks[height]
	if !exists {
		return database.Block{}, database.ErrNotFound
	}
	return row, nil
}

// LatestBlock returns the block with the greatest height.
func (m *Memory) LatestBlock(ctx context.Context) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.blocks[m.latest], nil
}

// Work returns the stored work target or ErrNotFound if none was stored.
func (m *Memory) Work(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.workSet {
		return 0, database.ErrNotFound
	}
	return m.work, nil
}

// CountAddresses returns the number of address rows.
func (m *Memory) CountAddresses(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return uint64(len(m.addresses)), nil
}

// CountNames returns the number of name rows.
func (m *Memory) CountNames(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return uint64(len(m.names)), nil
}

// CountTransactions returns the number of transaction rows.
func (m *Memory) CountTransactions(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return uint64(len(m.trans)), nil
}

// CountBlocks returns the number of block rows, genesis included.
func (m *Memory) CountBlocks(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return uint64(len(m.blocks)), nil
}

// Supply returns the sum of all balances.
func (m *Memory) Supply(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total uint64
	for _, row := range m.addresses {
		total += row.Balance
	}
	return total, nil
}

// Transactions returns the committed transactions ordered by id.
func (m *Memory) Transactions() []database.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trans := make([]database.Transaction, 0, len(m.trans))
	for _, tx := range m.trans {
		trans = append(trans, tx)
	}
	sort.Slice(trans, func(i, j int) bool { return trans[i].ID < trans[j].ID })

	return trans
}

// =============================================================================

// commit validates the unique constraints against committed state and then
// applies every staged change under the write lock.
func (m *Memory) commit(tx *memTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tran := range tx.trans {
		if tran.RequestID == nil {
			continue
		}
		if _, exists := m.requestIDs[*tran.RequestID]; exists {
			return database.ErrDuplicate
		}
	}

	for _, blk := range tx.blocks {
		if _, exists := m.blocks[blk.Height]; exists {
			return database.ErrDuplicate
		}
		if _, exists := m.hashes[blk.Hash]; exists {
			return database.ErrDuplicate
		}
	}

	for name := range tx.insertedNames {
		if _, exists := m.names[name]; exists {
			return database.ErrDuplicate
		}
	}

	for addr, d := range tx.deltas {
		row := m.addresses[addr]
		if row.Balance+d.in < d.out {
			return database.ErrOverdraft
		}
	}

	// Validation passed, nothing below can fail.

	for addr, d := range tx.deltas {
		row, exists := m.addresses[addr]
		if !exists {
			row = database.Address{Address: addr, FirstSeen: d.firstSeen}
		}
		row.Balance = row.Balance + d.in - d.out
		row.TotalIn += d.in
		row.TotalOut += d.out
		m.addresses[addr] = row
	}

	for _, tran := range tx.trans {
		m.trans[tran.ID] = tran
		if tran.RequestID != nil {
			m.requestIDs[*tran.RequestID] = tran.ID
		}
	}

	// Unpaid only moves through the bulk decay, so updates keep the
	// committed value.
	for name, row := range tx.names {
		if _, inserted := tx.insertedNames[name]; !inserted {
			row.Unpaid = m.names[name].Unpaid
		}
		m.names[name] = row
	}

	for i := 0; i < tx.decays; i++ {
		for name, row := range m.names {
			if row.Unpaid > 0 {
				row.Unpaid--
				m.names[name] = row
			}
		}
	}

	for _, blk := range tx.blocks {
		m.blocks[blk.Height] = blk
		m.hashes[blk.Hash] = blk.Height
		if blk.Height > m.latest {
			m.latest = blk.Height
		}
	}

	return nil
}

// =============================================================================

// lockTable hands out one lock token per key. Tokens are removed once no
// transaction holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*rowLock
}

type rowLock struct {
	token chan struct{}
	refs  int
}

func newLockTable() *lockTable {
	return &lockTable{
		locks: make(map[string]*rowLock),
	}
}

// acquire blocks until the key is free or the context is done.
func (lt *lockTable) acquire(ctx context.Context, key string) error {
	lt.mu.Lock()
	l, exists := lt.locks[key]
	if !exists {
		l = &rowLock{token: make(chan struct{}, 1)}
		lt.locks[key] = l
	}
	l.refs++
	lt.mu.Unlock()

	select {
	case l.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		lt.unref(key, l)
		return ctx.Err()
	}
}

// release frees the key for the next waiting transaction.
func (lt *lockTable) release(key string) {
	lt.mu.Lock()
	l, exists := lt.locks[key]
	lt.mu.Unlock()

	if !exists {
		return
	}

	<-l.token
	lt.unref(key, l)
}

func (lt *lockTable) unref(key string, l *rowLock) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(lt.locks, key)
	}
}
