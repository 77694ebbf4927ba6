// Package state is the core API for the ledger and implements all the
// business rules and processing: transfers, the name economy and block
// submission.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ardanlabs/ledger/foundation/cache"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/workqueue"
)

// Set of count cache keys.
const (
	CountAddresses    = "addresses"
	CountNames        = "names"
	CountTransactions = "transactions"
	CountBlocks       = "blocks"
	CountSupply       = "supply"
)

// DefaultQueueWorkers is the number of transfers and name operations that
// run at once when the config leaves it unset.
const DefaultQueueWorkers = 4

// Config represents the configuration required to start the ledger.
type Config struct {
	Store      database.Store
	Publisher  Publisher
	Cache      Cache
	Observer   Observer
	Log        *zap.SugaredLogger
	Difficulty Difficulty

	NameCost     uint64
	QueueWorkers int
	QueueDepth   int
	QueueTimeout time.Duration

	MiningEnabled       bool
	TransactionsEnabled bool

	// Now overrides the clock. Tests use it to control block times.
	Now func() time.Time
}

// State manages the ledger.
type State struct {
	store      database.Store
	publisher  Publisher
	cache      Cache
	observer   Observer
	log        *zap.SugaredLogger
	difficulty Difficulty
	nameCost   uint64
	queue      *workqueue.Queue
	now        func() time.Time

	miningEnabled       atomic.Bool
	transactionsEnabled atomic.Bool
}

// New constructs the ledger core and starts the transfer queue.
func New(cfg Config) (*State, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}

	if cfg.Publisher == nil {
		cfg.Publisher = nopPublisher{}
	}
	if cfg.Cache == nil {
		cfg.Cache = nopCache{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	if cfg.Difficulty == (Difficulty{}) {
		cfg.Difficulty = DefaultDifficulty()
	}
	if cfg.NameCost == 0 {
		cfg.NameCost = 500
	}
	if cfg.QueueWorkers <= 0 {
		cfg.QueueWorkers = DefaultQueueWorkers
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	state := State{
		store:      cfg.Store,
		publisher:  cfg.Publisher,
		cache:      cfg.Cache,
		observer:   cfg.Observer,
		log:        cfg.Log,
		difficulty: cfg.Difficulty,
		nameCost:   cfg.NameCost,
		queue:      workqueue.New(cfg.QueueWorkers, cfg.QueueDepth, cfg.QueueTimeout),
		now:        cfg.Now,
	}

	state.miningEnabled.Store(cfg.MiningEnabled)
	state.transactionsEnabled.Store(cfg.TransactionsEnabled)

	work, err := state.Work(context.Background())
	if err != nil {
		state.queue.Shutdown()
		return nil, fmt.Errorf("load work: %w", err)
	}
	state.observer.SetWork(work)

	return &state, nil
}

// Shutdown stops the transfer queue after the running jobs finish.
func (s *State) Shutdown() {
	s.log.Infow("state", "status", "shutdown started")
	defer s.log.Infow("state", "status", "shutdown completed")

	s.queue.Shutdown()
}

// =============================================================================

// SetMiningEnabled turns block submission on or off.
func (s *State) SetMiningEnabled(enabled bool) {
	s.miningEnabled.Store(enabled)
}

// MiningEnabled reports whether block submission is on.
func (s *State) MiningEnabled() bool {
	return s.miningEnabled.Load()
}

// SetTransactionsEnabled turns transfers and name operations on or off.
func (s *State) SetTransactionsEnabled(enabled bool) {
	s.transactionsEnabled.Store(enabled)
}

// TransactionsEnabled reports whether transfers are on.
func (s *State) TransactionsEnabled() bool {
	return s.transactionsEnabled.Load()
}

// NameCost returns the price of registering a name.
func (s *State) NameCost() uint64 {
	return s.nameCost
}

// =============================================================================

// unexpected logs and wraps errors that are not part of the public error
// set. Expected errors pass through unchanged.
func (s *State) unexpected(op string, err error) error {
	if err == nil || IsExpected(err) {
		return err
	}

	s.log.Errorw(op, "status", "store failure", "ERROR", err)
	return fmt.Errorf("%s: %w", op, err)
}

// publish sends the events in order after a commit.
func (s *State) publish(evts ...Event) {
	for _, evt := range evts {
		s.publisher.Publish(evt)
	}
}

// =============================================================================

type nopCache struct{}

func (nopCache) Count(ctx context.Context, key string, load cache.Loader) (uint64, error) {
	return load(ctx)
}

func (nopCache) Invalidate(keys ...string) {}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error, time.Time) {}
func (nopObserver) ObserveSubmission(string)                  {}
func (nopObserver) SetWork(uint64)                            {}
