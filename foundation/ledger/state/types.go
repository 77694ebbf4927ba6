package state

import (
	"context"
	"time"

	"github.com/ardanlabs/ledger/foundation/cache"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Publisher represents the broadcaster that receives every committed change.
// Publish is only called after the change is durable.
type Publisher interface {
	Publish(evt Event)
}

// Cache represents the read-through cache for aggregate counts.
type Cache interface {
	Count(ctx context.Context, key string, load cache.Loader) (uint64, error)
	Invalidate(keys ...string)
}

// Observer represents the metrics recorded by the core.
type Observer interface {
	ObserveOperation(operation string, err error, started time.Time)
	ObserveSubmission(result string)
	SetWork(work uint64)
}
