// Package history persists conversion-rate snapshots for the dashboard chart.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// Store is an append-only log of conversion-rate snapshots
type Store interface {
	// Append persists one snapshot. Failures are *types.PersistenceError.
	Append(ctx context.Context, rate model.ConversionRate) error

	// Recent returns up to limit of the newest snapshots, oldest first
	Recent(ctx context.Context, limit int) ([]model.HistoryRecord, error)
}

// Limits applied to Recent queries from the HTTP surface
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// AppendTimeout bounds a snapshot write detached from its request
const AppendTimeout = 5 * time.Second

// AppendDetached appends rate on a context that survives cancellation of ctx, so a
// client disconnecting after the upstream answered does not drop the snapshot
func AppendDetached(ctx context.Context, store Store, rate model.ConversionRate) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), AppendTimeout)
	defer cancel()
	return store.Append(ctx, rate)
}

// MemoryStore keeps snapshots in process. It is used when no database is configured
// and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.HistoryRecord
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process history
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append records a snapshot with an implicit insertion timestamp
func (s *MemoryStore) Append(_ context.Context, rate model.ConversionRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.records = append(s.records, toRecord(s.nextID, rate, s.now()))
	return nil
}

// Recent returns the newest limit records in insertion order
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.records) > limit {
		start = len(s.records) - limit
	}

	out := make([]model.HistoryRecord, len(s.records)-start)
	copy(out, s.records[start:])
	return out, nil
}

func toRecord(id int64, rate model.ConversionRate, at time.Time) model.HistoryRecord {
	return model.HistoryRecord{
		ID:             id,
		XFeyAmount:     rate.XFeyAmount,
		FeyAmount:      rate.FeyAmount,
		ConversionRate: rate.ConversionRate,
		GainsPercent:   rate.PercentageGain,
		CreatedAt:      at,
	}
}

func persistenceError(op string, err error) error {
	return &types.PersistenceError{Op: op, Err: err}
}
