// Package sqldb implements the ledger store on a relational database using
// GORM. The schema is owned by the embedded migrations.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const workKey = "work"

// Config is the required properties to use the database.
type Config struct {
	DSN           string
	SlowThreshold time.Duration
	Log           *zap.SugaredLogger
}

// Store represents the relational implementation of the ledger store. This
// implements the database.Store interface.
type Store struct {
	db *gorm.DB
}

// Open knows how to open a database connection based on the configuration.
// Pending migrations are applied before the store is returned.
func Open(cfg Config) (*Store, error) {
	gcfg := gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	if cfg.Log != nil {
		gcfg.Logger = gormlogger.New(zap.NewStdLog(cfg.Log.Desugar()), gormlogger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gcfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}

	// SQLite has no row level locks. A single connection serializes
	// writers so a transaction holds the whole database instead.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies every pending migration to the database.
func Migrate(sqlDB *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("init migrate driver: %w", err)
	}

	// Closing the migrate instance would close the shared connection pool.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InTx runs fn inside a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx database.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&sqlTx{db: gtx})
	})
	return translate(err)
}

// SetWork stores the work target for the next block.
func (s *Store) SetWork(ctx context.Context, work uint64) error {
	row := dbSetting{Key: workKey, Value: strconv.FormatUint(work, 10)}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error

	return translate(err)
}

// =============================================================================

// QueryAddress returns the specified address row.
func (s *Store) QueryAddress(ctx context.Context, addr string) (database.Address, error) {
	var row dbAddress
	if err := s.db.WithContext(ctx).Where("address = ?", addr).Take(&row).Error; err != nil {
		return database.Address{}, translate(err)
	}
	return toAddress(row), nil
}

// QueryName returns the specified name row.
func (s *Store) QueryName(ctx context.Context, name string) (database.Name, error) {
	return queryName(ctx, s.db, name, false)
}

// QueryTransaction returns the transaction with the specified id.
func (s *Store) QueryTransaction(ctx context.Context, id uint64) (database.Transaction, error) {
	var row dbTransaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return database.Transaction{}, translate(err)
	}
	return toTransaction(row), nil
}

// QueryBlock returns the block at the specified height.
func (s *Store) QueryBlock(ctx context.Context, height uint64) (database.Block, error) {
	var row dbBlock
	if err := s.db.WithContext(ctx).Where("id = ?", height).Take(&row).Error; err != nil {
		return database.Block{}, translate(err)
	}
	return toBlock(row), nil
}

// LatestBlock returns the block with the greatest height.
func (s *Store) LatestBlock(ctx context.Context) (database.Block, error) {
	return latestBlock(ctx, s.db)
}

// Work returns the stored work target or ErrNotFound if none was stored.
func (s *Store) Work(ctx context.Context) (uint64, error) {
	var row dbSetting
	if err := s.db.WithContext(ctx).Where("name = ?", workKey).Take(&row).Error; err != nil {
		return 0, translate(err)
	}

	work, err := strconv.ParseUint(row.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse work %q: %w", row.Value, err)
	}
	return work, nil
}

// CountAddresses returns the number of address rows.
func (s *Store) CountAddresses(ctx context.Context) (uint64, error) {
	return count(ctx, s.db.Model(&dbAddress{}))
}

// CountNames returns the number of name rows.
func (s *Store) CountNames(ctx context.Context) (uint64, error) {
	return count(ctx, s.db.Model(&dbName{}))
}

// CountTransactions returns the number of transaction rows.
func (s *Store) CountTransactions(ctx context.Context) (uint64, error) {
	return count(ctx, s.db.Model(&dbTransaction{}))
}

// CountBlocks returns the number of block rows, genesis included.
func (s *Store) CountBlocks(ctx context.Context) (uint64, error) {
	return count(ctx, s.db.Model(&dbBlock{}))
}

// Supply returns the sum of all balances.
func (s *Store) Supply(ctx context.Context) (uint64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&dbAddress{}).Select("COALESCE(SUM(balance), 0)").Scan(&total).Error
	if err != nil {
		return 0, translate(err)
	}
	return uint64(total), nil
}

// =============================================================================

func count(ctx context.Context, q *gorm.DB) (uint64, error) {
	var n int64
	if err := q.WithContext(ctx).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return uint64(n), nil
}

func queryName(ctx context.Context, db *gorm.DB, name string, lock bool) (database.Name, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row dbName
	if err := q.Where("name = ?", name).Take(&row).Error; err != nil {
		return database.Name{}, translate(err)
	}
	return toName(row), nil
}

func latestBlock(ctx context.Context, db *gorm.DB) (database.Block, error) {
	var row dbBlock
	if err := db.WithContext(ctx).Order("id DESC").Take(&row).Error; err != nil {
		return database.Block{}, translate(err)
	}
	return toBlock(row), nil
}

// translate maps GORM errors onto the database package errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return database.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return database.ErrDuplicate
	default:
		return err
	}
}
