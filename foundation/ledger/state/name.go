package state

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// RegisterName buys the name for the buyer at the configured cost. The cost
// is added to the unpaid bonus paid out through future block rewards.
func (s *State) RegisterName(ctx context.Context, buyer string, name string) (database.Name, error) {
	started := time.Now()

	n, err := s.registerName(ctx, buyer, name)
	s.observer.ObserveOperation("register_name", err, started)

	return n, err
}

func (s *State) registerName(ctx context.Context, buyer string, name string) (database.Name, error) {
	if !s.TransactionsEnabled() {
		return database.Name{}, ErrTransactionsDisabled
	}

	if !address.IsValid(buyer, true) {
		return database.Name{}, invalid("address")
	}
	buyer = address.Canonical(buyer)

	name, ok := NormalizeName(name)
	if !ok {
		return database.Name{}, invalid("name")
	}

	var row database.Name
	var tran database.Transaction

	err := s.queue.Do(ctx, func(ctx context.Context) error {
		now := s.now()

		return s.store.InTx(ctx, func(tx database.Tx) error {
			if _, err := tx.QueryName(ctx, name); err == nil {
				return ErrNameTaken
			} else if !errors.Is(err, database.ErrNotFound) {
				return err
			}

			acct, err := tx.LockAddress(ctx, buyer)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return ErrInsufficientFunds
				}
				return err
			}

			if acct.Balance < s.nameCost {
				return ErrInsufficientFunds
			}

			if err := tx.Debit(ctx, buyer, s.nameCost); err != nil {
				if errors.Is(err, database.ErrOverdraft) {
					return ErrInsufficientFunds
				}
				return err
			}

			tran, err = tx.InsertTransaction(ctx, database.Transaction{
				From:  database.StrPtr(buyer),
				To:    database.ToName,
				Value: s.nameCost,
				Time:  now,
				Name:  name,
			})
			if err != nil {
				return err
			}

			row = database.Name{
				Name:       name,
				Owner:      buyer,
				Registered: now,
				Updated:    now,
				Unpaid:     s.nameCost,
			}

			return tx.InsertName(ctx, row)
		})
	})
	if errors.Is(err, database.ErrDuplicate) {
		err = ErrNameTaken
	}
	if err != nil {
		return database.Name{}, s.unexpected("register name", err)
	}

	s.cache.Invalidate(CountNames, CountTransactions, CountSupply)
	s.publish(
		NameEvent{Name: row, Action: NamePurchase},
		TransactionEvent{Transaction: tran},
	)

	return row, nil
}

// TransferName hands the name to a new owner. Transferring to the current
// owner changes nothing.
func (s *State) TransferName(ctx context.Context, name string, newOwner string, caller string) (database.Name, error) {
	started := time.Now()

	n, err := s.transferName(ctx, name, newOwner, caller)
	s.observer.ObserveOperation("transfer_name", err, started)

	return n, err
}

func (s *State) transferName(ctx context.Context, name string, newOwner string, caller string) (database.Name, error) {
	if !s.TransactionsEnabled() {
		return database.Name{}, ErrTransactionsDisabled
	}

	name, ok := NormalizeName(name)
	if !ok {
		return database.Name{}, invalid("name")
	}

	if newOwner == "" {
		return database.Name{}, missing("address")
	}
	if !address.IsValid(newOwner, false) {
		return database.Name{}, invalid("address")
	}
	newOwner = address.Canonical(newOwner)
	caller = address.Canonical(caller)

	var row database.Name
	var tran database.Transaction
	var previous string
	var changed bool

	err := s.queue.Do(ctx, func(ctx context.Context) error {
		now := s.now()

		return s.store.InTx(ctx, func(tx database.Tx) error {
			var err error
			row, err = lockOwnedName(ctx, tx, name, caller)
			if err != nil {
				return err
			}

			if row.Owner == newOwner {
				return nil
			}

			previous = row.Owner
			if row.OriginalOwner == "" {
				row.OriginalOwner = previous
			}
			row.Owner = newOwner
			row.Updated = now
			row.Transferred = &now

			if err := tx.UpdateName(ctx, row); err != nil {
				return err
			}

			tran, err = tx.InsertTransaction(ctx, database.Transaction{
				From: database.StrPtr(previous),
				To:   newOwner,
				Time: now,
				Name: name,
			})
			if err != nil {
				return err
			}

			changed = true
			return nil
		})
	})
	if err != nil {
		return database.Name{}, s.unexpected("transfer name", err)
	}

	if !changed {
		return row, nil
	}

	s.cache.Invalidate(CountTransactions)
	s.publish(
		NameEvent{Name: row, Action: NameTransfer, Previous: previous},
		TransactionEvent{Transaction: tran},
	)

	return row, nil
}

// UpdateNameRecord sets the data record of the name. An empty record clears
// it and setting the current value changes nothing.
func (s *State) UpdateNameRecord(ctx context.Context, name string, record string, caller string) (database.Name, error) {
	started := time.Now()

	n, err := s.updateNameRecord(ctx, name, record, caller)
	s.observer.ObserveOperation("update_name_record", err, started)

	return n, err
}

func (s *State) updateNameRecord(ctx context.Context, name string, record string, caller string) (database.Name, error) {
	if !s.TransactionsEnabled() {
		return database.Name{}, ErrTransactionsDisabled
	}

	name, ok := NormalizeName(name)
	if !ok {
		return database.Name{}, invalid("name")
	}

	if !validRecord(record) {
		return database.Name{}, invalid("a")
	}
	caller = address.Canonical(caller)

	var row database.Name
	var tran database.Transaction
	var changed bool

	err := s.queue.Do(ctx, func(ctx context.Context) error {
		now := s.now()

		return s.store.InTx(ctx, func(tx database.Tx) error {
			var err error
			row, err = lockOwnedName(ctx, tx, name, caller)
			if err != nil {
				return err
			}

			if row.Record == record {
				return nil
			}

			row.Record = record
			row.Updated = now

			if err := tx.UpdateName(ctx, row); err != nil {
				return err
			}

			tran, err = tx.InsertTransaction(ctx, database.Transaction{
				From:     database.StrPtr(row.Owner),
				To:       database.ToRecord,
				Time:     now,
				Name:     name,
				Metadata: record,
			})
			if err != nil {
				return err
			}

			changed = true
			return nil
		})
	})
	if err != nil {
		return database.Name{}, s.unexpected("update name record", err)
	}

	if !changed {
		return row, nil
	}

	s.cache.Invalidate(CountTransactions)
	s.publish(
		NameEvent{Name: row, Action: NameRecord},
		TransactionEvent{Transaction: tran},
	)

	return row, nil
}

// =============================================================================

func lockOwnedName(ctx context.Context, tx database.Tx, name string, caller string) (database.Name, error) {
	row, err := tx.LockName(ctx, name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Name{}, ErrNameNotFound
		}
		return database.Name{}, err
	}

	if row.Owner != caller {
		return database.Name{}, ErrNotNameOwner
	}

	return row, nil
}
