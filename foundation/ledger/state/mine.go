package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// Set of reasons a submission is rejected.
const (
	ReasonSolutionIncorrect = "solution_incorrect"
	ReasonSolutionDuplicate = "solution_duplicate"
)

// Submission is the outcome of a block submission. A losing solution is not
// an error; Success is false and Reason says why.
type Submission struct {
	Success bool
	Reason  string
	Block   database.Block
	Work    uint64
}

// SolutionHash returns the hash a solver and nonce produce on top of the
// previous block.
func SolutionHash(solver string, previous database.Block, nonce []byte) string {
	h := sha256.New()
	h.Write([]byte(solver))
	h.Write([]byte(previous.ShortHash()))
	h.Write(nonce)

	return hex.EncodeToString(h.Sum(nil))
}

// SubmitBlock verifies the proof of work and, when it meets the current
// work, mints the reward to the solver and retargets the work.
func (s *State) SubmitBlock(ctx context.Context, solver string, nonce []byte) (Submission, error) {
	started := time.Now()

	sub, err := s.submitBlock(ctx, solver, nonce)
	s.observer.ObserveOperation("submit_block", err, started)

	switch {
	case err != nil:
	case sub.Success:
		s.observer.ObserveSubmission("success")
	default:
		s.observer.ObserveSubmission(sub.Reason)
	}

	return sub, err
}

func (s *State) submitBlock(ctx context.Context, solver string, nonce []byte) (Submission, error) {
	if !s.MiningEnabled() {
		return Submission{}, ErrMiningDisabled
	}

	if solver == "" {
		return Submission{}, missing("address")
	}
	if !address.IsValid(solver, false) {
		return Submission{}, invalid("address")
	}
	solver = address.Canonical(solver)

	if len(nonce) == 0 {
		return Submission{}, missing("nonce")
	}
	if len(nonce) > maxNonce {
		return Submission{}, invalid("nonce")
	}

	previous, err := s.store.LatestBlock(ctx)
	if err != nil {
		return Submission{}, s.unexpected("submit block", err)
	}

	work, err := s.Work(ctx)
	if err != nil {
		return Submission{}, s.unexpected("submit block", err)
	}

	hash := SolutionHash(solver, previous, nonce)
	if !MeetsWork(hash, work) {
		return Submission{Reason: ReasonSolutionIncorrect, Work: work}, nil
	}

	now := s.now()

	var block database.Block
	var mined database.Transaction
	var created bool

	err = s.store.InTx(ctx, func(tx database.Tx) error {
		unpaid, err := tx.CountUnpaidNames(ctx)
		if err != nil {
			return err
		}

		height := previous.Height + 1
		block = database.Block{
			Height:     height,
			Hash:       hash,
			Address:    solver,
			Nonce:      nonce,
			Value:      BaseReward(height) + unpaid,
			Difficulty: work,
			Time:       now,
		}

		if err := tx.InsertBlock(ctx, block); err != nil {
			return err
		}

		created, err = tx.Credit(ctx, solver, block.Value, now)
		if err != nil {
			return err
		}

		mined, err = tx.InsertTransaction(ctx, database.Transaction{
			To:    solver,
			Value: block.Value,
			Time:  now,
		})
		if err != nil {
			return err
		}

		_, err = tx.DecayUnpaidNames(ctx)
		return err
	})

	// The height or hash is already taken. Another solution for the same
	// previous block won, or this one was submitted twice.
	if errors.Is(err, database.ErrDuplicate) {
		return Submission{Reason: ReasonSolutionDuplicate, Work: work}, nil
	}
	if err != nil {
		return Submission{}, s.unexpected("submit block", err)
	}

	newWork := s.difficulty.Retarget(work, now.Sub(previous.Time))
	if err := s.store.SetWork(ctx, newWork); err != nil {
		s.log.Errorw("submit block", "status", "store work", "height", block.Height, "ERROR", err)
	}
	s.observer.SetWork(newWork)

	keys := []string{CountBlocks, CountTransactions, CountSupply}
	if created {
		keys = append(keys, CountAddresses)
	}
	s.cache.Invalidate(keys...)

	s.publish(
		BlockEvent{Block: block, NewWork: newWork},
		TransactionEvent{Transaction: mined},
	)

	s.log.Infow("submit block", "status", "accepted", "height", block.Height, "address", solver, "value", block.Value, "work", newWork)

	return Submission{Success: true, Block: block, Work: newWork}, nil
}

// Work returns the work target for the next block.
func (s *State) Work(ctx context.Context) (uint64, error) {
	work, err := s.store.Work(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return s.difficulty.InitialWork, nil
	}
	return work, err
}
