// Package cache provides the short-lived key/value store shared by all metric endpoints.
//
// Expiry is absolute: Set records now+ttl and Get treats any record at or past its
// expiry as a miss. There is no background sweep; expired records are only ever
// superseded by a later Set.
package cache

import (
	"context"
	"errors"
	"time"
)

// Store is a key/value cache with per-key expiry. Implementations must be safe for
// concurrent use. Get reports a miss (never an error) when the backing store is
// unavailable, so callers can always fall through to the upstream.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrInvalidTTL is returned by Set for a non-positive ttl
var ErrInvalidTTL = errors.New("cache ttl must be positive")

// envelope is the stored form for backends that keep the expiry next to the value
type envelope struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at"` // Unix milliseconds
}

func expired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
