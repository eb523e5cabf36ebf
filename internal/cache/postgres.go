package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createCacheTable = `
		CREATE TABLE IF NOT EXISTS api_cache (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`

	upsertCacheEntry = `
		INSERT INTO api_cache (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	selectCacheEntry = `
		SELECT value, expires_at
		FROM api_cache
		WHERE key = $1`
)

// PostgresStore keeps cache records in a key/value table with upsert-by-key
// semantics. Values are stored byte for byte.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// NewPostgresStore creates a Postgres-backed cache
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// WithClock replaces the time source and returns the store
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

// EnsureSchema creates the cache table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createCacheTable); err != nil {
		return fmt.Errorf("failed to create api_cache table: %w", err)
	}
	return nil
}

// Get returns the value for key if its expiry has not passed
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		value     []byte
		expiresAt time.Time
	)

	err := s.db.QueryRow(ctx, selectCacheEntry, key).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Postgres cache read failed, treating as miss")
		return nil, false
	}

	if expired(expiresAt, s.now()) {
		return nil, false
	}
	return value, true
}

// Set upserts value under key with expiry now+ttl
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	if _, err := s.db.Exec(ctx, upsertCacheEntry, key, value, s.now().Add(ttl)); err != nil {
		return fmt.Errorf("postgres cache upsert %s: %w", key, err)
	}
	return nil
}
