package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/database/memory"
)

func TestMemory_RollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	m.Seed("kaaaaaaaaa", 100)

	errBoom := errors.New("boom")
	err := m.InTx(ctx, func(tx database.Tx) error {
		if _, err := tx.LockAddress(ctx, "kaaaaaaaaa"); err != nil {
			return err
		}
		if err := tx.Debit(ctx, "kaaaaaaaaa", 40); err != nil {
			return err
		}
		if _, err := tx.Credit(ctx, "kbbbbbbbbb", 40, time.Now()); err != nil {
			return err
		}
		if _, err := tx.InsertTransaction(ctx, database.Transaction{From: database.StrPtr("kaaaaaaaaa"), To: "kbbbbbbbbb", Value: 40}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	row, err := m.QueryAddress(ctx, "kaaaaaaaaa")
	require.NoError(t, err)
	require.Equal(t, uint64(100), row.Balance)

	_, err = m.QueryAddress(ctx, "kbbbbbbbbb")
	require.ErrorIs(t, err, database.ErrNotFound)

	count, err := m.CountTransactions(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMemory_CommitAppliesDeltas(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	m.Seed("kaaaaaaaaa", 100)

	err := m.InTx(ctx, func(tx database.Tx) error {
		if _, err := tx.LockAddress(ctx, "kaaaaaaaaa"); err != nil {
			return err
		}
		if err := tx.Debit(ctx, "kaaaaaaaaa", 30); err != nil {
			return err
		}
		created, err := tx.Credit(ctx, "kbbbbbbbbb", 30, time.Now())
		require.True(t, created)
		return err
	})
	require.NoError(t, err)

	from, err := m.QueryAddress(ctx, "kaaaaaaaaa")
	require.NoError(t, err)
	require.Equal(t, uint64(70), from.Balance)
	require.Equal(t, uint64(30), from.TotalOut)

	to, err := m.QueryAddress(ctx, "kbbbbbbbbb")
	require.NoError(t, err)
	require.Equal(t, uint64(30), to.Balance)
	require.Equal(t, uint64(30), to.TotalIn)

	supply, err := m.Supply(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100), supply)
}

func TestMemory_DebitOverdraft(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	m.Seed("kaaaaaaaaa", 10)

	err := m.InTx(ctx, func(tx database.Tx) error {
		return tx.Debit(ctx, "kaaaaaaaaa", 11)
	})
	require.ErrorIs(t, err, database.ErrOverdraft)
}

func TestMemory_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	reqID := "req-1"
	insert := func(tx database.Tx) error {
		_, err := tx.InsertTransaction(ctx, database.Transaction{To: "kaaaaaaaaa", RequestID: &reqID})
		return err
	}
	require.NoError(t, m.InTx(ctx, insert))
	require.ErrorIs(t, m.InTx(ctx, insert), database.ErrDuplicate)

	name := database.Name{Name: "test", Owner: "kaaaaaaaaa", Unpaid: 500}
	require.NoError(t, m.InTx(ctx, func(tx database.Tx) error { return tx.InsertName(ctx, name) }))
	require.ErrorIs(t, m.InTx(ctx, func(tx database.Tx) error { return tx.InsertName(ctx, name) }), database.ErrDuplicate)

	genesis, err := m.LatestBlock(ctx)
	require.NoError(t, err)
	require.Equal(t, database.GenesisHash, genesis.Hash)

	blk := database.Block{Height: 2, Hash: "ab", Address: "kaaaaaaaaa"}
	require.NoError(t, m.InTx(ctx, func(tx database.Tx) error { return tx.InsertBlock(ctx, blk) }))

	blk.Hash = "cd"
	require.ErrorIs(t, m.InTx(ctx, func(tx database.Tx) error { return tx.InsertBlock(ctx, blk) }), database.ErrDuplicate)

	blk.Height, blk.Hash = 3, "ab"
	require.ErrorIs(t, m.InTx(ctx, func(tx database.Tx) error { return tx.InsertBlock(ctx, blk) }), database.ErrDuplicate)
}

func TestMemory_DecayUnpaidNames(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	require.NoError(t, m.InTx(ctx, func(tx database.Tx) error {
		if err := tx.InsertName(ctx, database.Name{Name: "one", Unpaid: 2}); err != nil {
			return err
		}
		return tx.InsertName(ctx, database.Name{Name: "two", Unpaid: 1})
	}))

	decay := func() uint64 {
		var touched uint64
		require.NoError(t, m.InTx(ctx, func(tx database.Tx) error {
			var err error
			touched, err = tx.DecayUnpaidNames(ctx)
			return err
		}))
		return touched
	}

	require.Equal(t, uint64(2), decay())
	require.Equal(t, uint64(1), decay())
	require.Equal(t, uint64(0), decay())

	one, err := m.QueryName(ctx, "one")
	require.NoError(t, err)
	require.Zero(t, one.Unpaid)
}

func TestMemory_LockSerializes(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	m.Seed("kaaaaaaaaa", 50)

	const goroutines = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := m.InTx(ctx, func(tx database.Tx) error {
				row, err := tx.LockAddress(ctx, "kaaaaaaaaa")
				if err != nil {
					return err
				}
				if row.Balance < 10 {
					return database.ErrOverdraft
				}
				return tx.Debit(ctx, "kaaaaaaaaa", 10)
			})
			if err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	row, err := m.QueryAddress(ctx, "kaaaaaaaaa")
	require.NoError(t, err)
	require.Zero(t, row.Balance)
	require.Equal(t, goroutines-5, failures)
}

func TestMemory_LockHonorsContext(t *testing.T) {
	m := memory.New()
	m.Seed("kaaaaaaaaa", 50)

	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = m.InTx(context.Background(), func(tx database.Tx) error {
			if _, err := tx.LockAddress(context.Background(), "kaaaaaaaaa"); err != nil {
				return err
			}
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.InTx(ctx, func(tx database.Tx) error {
		_, err := tx.LockAddress(ctx, "kaaaaaaaaa")
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(done)
}
