package sqldb

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// sqlTx runs every statement on one database transaction. This implements
// the database.Tx interface.
type sqlTx struct {
	db *gorm.DB
}

// LockAddress reads the address row with a row lock where the dialect
// supports one.
func (tx *sqlTx) LockAddress(ctx context.Context, addr string) (database.Address, error) {
	var row dbAddress
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", addr).
		Take(&row).Error
	if err != nil {
		return database.Address{}, translate(err)
	}
	return toAddress(row), nil
}

// Credit upserts the incoming amount so concurrent credits accumulate.
func (tx *sqlTx) Credit(ctx context.Context, addr string, amount uint64, now time.Time) (bool, error) {
	var n int64
	if err := tx.db.WithContext(ctx).Model(&dbAddress{}).Where("address = ?", addr).Count(&n).Error; err != nil {
		return false, translate(err)
	}

	row := dbAddress{
		Address:   addr,
		Balance:   amount,
		TotalIn:   amount,
		FirstSeen: now.UTC(),
	}

	err := tx.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance": gorm.Expr("balance + ?", amount),
			"totalin": gorm.Expr("totalin + ?", amount),
		}),
	}).Create(&row).Error
	if err != nil {
		return false, translate(err)
	}

	return n == 0, nil
}

// Debit removes the amount only when the balance covers it.
func (tx *sqlTx) Debit(ctx context.Context, addr string, amount uint64) error {
	res := tx.db.WithContext(ctx).
		Model(&dbAddress{}).
		Where("address = ? AND balance >= ?", addr, amount).
		Updates(map[string]any{
			"balance":  gorm.Expr("balance - ?", amount),
			"totalout": gorm.Expr("totalout + ?", amount),
		})
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		var n int64
		if err := tx.db.WithContext(ctx).Model(&dbAddress{}).Where("address = ?", addr).Count(&n).Error; err != nil {
			return translate(err)
		}
		if n == 0 {
			return database.ErrNotFound
		}
		return database.ErrOverdraft
	}

	return nil
}

// InsertTransaction appends the transaction and returns it with its id.
func (tx *sqlTx) InsertTransaction(ctx context.Context, tran database.Transaction) (database.Transaction, error) {
	row := toDBTransaction(tran)
	row.ID = 0
	row.Time = row.Time.UTC()

	if err := tx.db.WithContext(ctx).Create(&row).Error; err != nil {
		return database.Transaction{}, translate(err)
	}
	return toTransaction(row), nil
}

// QueryTransactionByRequestID finds a transaction by its idempotency token.
func (tx *sqlTx) QueryTransactionByRequestID(ctx context.Context, requestID string) (database.Transaction, error) {
	var row dbTransaction
	if err := tx.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&row).Error; err != nil {
		return database.Transaction{}, translate(err)
	}
	return toTransaction(row), nil
}

func (tx *sqlTx) QueryName(ctx context.Context, name string) (database.Name, error) {
	return queryName(ctx, tx.db, name, false)
}

func (tx *sqlTx) LockName(ctx context.Context, name string) (database.Name, error) {
	return queryName(ctx, tx.db, name, true)
}

func (tx *sqlTx) InsertName(ctx context.Context, name database.Name) error {
	row := toDBName(name)
	return translate(tx.db.WithContext(ctx).Create(&row).Error)
}

// UpdateName writes the ownership and record columns. Unpaid only moves
// through DecayUnpaidNames.
func (tx *sqlTx) UpdateName(ctx context.Context, name database.Name) error {
	row := toDBName(name)

	res := tx.db.WithContext(ctx).
		Model(&dbName{Name: name.Name}).
		Select("owner", "original_owner", "updated", "transferred", "a").
		Updates(&row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (tx *sqlTx) CountUnpaidNames(ctx context.Context) (uint64, error) {
	return count(ctx, tx.db.Model(&dbName{}).Where("unpaid > 0"))
}

func (tx *sqlTx) DecayUnpaidNames(ctx context.Context) (uint64, error) {
	res := tx.db.WithContext(ctx).
		Model(&dbName{}).
		Where("unpaid > 0").
		Update("unpaid", gorm.Expr("unpaid - 1"))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return uint64(res.RowsAffected), nil
}

func (tx *sqlTx) LatestBlock(ctx context.Context) (database.Block, error) {
	return latestBlock(ctx, tx.db)
}

// InsertBlock stores the block with its height as the primary key.
func (tx *sqlTx) InsertBlock(ctx context.Context, block database.Block) error {
	row := toDBBlock(block)
	row.Time = row.Time.UTC()

	return translate(tx.db.WithContext(ctx).Create(&row).Error)
}
