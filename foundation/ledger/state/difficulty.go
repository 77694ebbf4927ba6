package state

import (
	"math"
	"strconv"
	"time"
)

// rewardDropHeight is the first block height paid the reduced base reward.
const rewardDropHeight = 222222

// Difficulty holds the parameters of the work retarget.
type Difficulty struct {
	SecondsPerBlock float64
	WorkFactor      float64
	MinWork         uint64
	MaxWork         uint64
	InitialWork     uint64
}

// DefaultDifficulty returns the production retarget parameters.
func DefaultDifficulty() Difficulty {
	return Difficulty{
		SecondsPerBlock: 300,
		WorkFactor:      0.025,
		MinWork:         1,
		MaxWork:         100000,
		InitialWork:     100000,
	}
}

// Retarget computes the work for the next block from the work the last
// block was solved at and the time it took. The target moves a WorkFactor
// fraction of the way towards the work that would have produced the
// configured cadence.
func (d Difficulty) Retarget(old uint64, elapsed time.Duration) uint64 {
	if elapsed < 0 {
		elapsed = 0
	}

	oldWork := float64(old)
	target := elapsed.Seconds() * oldWork / d.SecondsPerBlock
	work := oldWork + (target-oldWork)*d.WorkFactor

	work = math.Max(work, float64(d.MinWork))
	work = math.Min(work, float64(d.MaxWork))

	return uint64(math.Round(work))
}

// BaseReward returns the minted value for a block at the specified height
// before the unpaid name bonus.
func BaseReward(height uint64) uint64 {
	if height >= rewardDropHeight {
		return 1
	}
	return 25
}

// MeetsWork reports whether the solution hash satisfies the work target. The
// first 12 hex characters are read as a number that must not exceed work.
func MeetsWork(hash string, work uint64) bool {
	if len(hash) < 12 {
		return false
	}

	v, err := strconv.ParseUint(hash[:12], 16, 64)
	if err != nil {
		return false
	}

	return v <= work
}
