package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/ledger/foundation/cache"
	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// QueryLatest represents the latest block when querying by height.
const QueryLatest = ^uint64(0) >> 1

// Stats is a snapshot of the ledger aggregates.
type Stats struct {
	Addresses    uint64
	Names        uint64
	Transactions uint64
	Blocks       uint64
	Supply       uint64
	Work         uint64
}

// QueryAddress returns the address row.
func (s *State) QueryAddress(ctx context.Context, addr string) (database.Address, error) {
	row, err := s.store.QueryAddress(ctx, address.Canonical(addr))
	return row, s.notFound(err, ErrAddressNotFound)
}

// QueryName returns the name row. The suffix is optional.
func (s *State) QueryName(ctx context.Context, name string) (database.Name, error) {
	name, ok := NormalizeName(name)
	if !ok {
		return database.Name{}, invalid("name")
	}

	row, err := s.store.QueryName(ctx, name)
	return row, s.notFound(err, ErrNameNotFound)
}

// QueryTransaction returns the transaction with the specified id.
func (s *State) QueryTransaction(ctx context.Context, id uint64) (database.Transaction, error) {
	row, err := s.store.QueryTransaction(ctx, id)
	return row, s.notFound(err, ErrTransactionNotFound)
}

// QueryBlock returns the block at the specified height. QueryLatest returns
// the latest block.
func (s *State) QueryBlock(ctx context.Context, height uint64) (database.Block, error) {
	if height == QueryLatest {
		row, err := s.store.LatestBlock(ctx)
		return row, s.notFound(err, ErrBlockNotFound)
	}

	row, err := s.store.QueryBlock(ctx, height)
	return row, s.notFound(err, ErrBlockNotFound)
}

// QueryStats returns the cached aggregates and the current work.
func (s *State) QueryStats(ctx context.Context) (Stats, error) {
	var stats Stats

	counts := []struct {
		key  string
		dest *uint64
		load cache.Loader
	}{
		{CountAddresses, &stats.Addresses, s.store.CountAddresses},
		{CountNames, &stats.Names, s.store.CountNames},
		{CountTransactions, &stats.Transactions, s.store.CountTransactions},
		{CountBlocks, &stats.Blocks, s.store.CountBlocks},
		{CountSupply, &stats.Supply, s.store.Supply},
	}

	for _, c := range counts {
		v, err := s.cache.Count(ctx, c.key, c.load)
		if err != nil {
			return Stats{}, s.unexpected("query stats", err)
		}
		*c.dest = v
	}

	work, err := s.Work(ctx)
	if err != nil {
		return Stats{}, s.unexpected("query stats", err)
	}
	stats.Work = work

	return stats, nil
}

// =============================================================================

func (s *State) notFound(err error, target error) error {
	if errors.Is(err, database.ErrNotFound) {
		return target
	}
	return s.unexpected("query", err)
}
