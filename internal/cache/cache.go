// Package cache provides the key/value store behind the analytics
// aggregator. Values carry independent TTLs; keys can be tracked in named
// sets so that a whole owner's entries can be dropped in one call.
package cache

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)

	// AddToSet tracks member under the named set.
	AddToSet(ctx context.Context, set string, member string)
	// DeleteSet removes every tracked member and the set itself.
	DeleteSet(ctx context.Context, set string)
}
