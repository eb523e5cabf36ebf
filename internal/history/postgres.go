package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	createRatesTable = `
		CREATE TABLE IF NOT EXISTS fey_rates (
			id              BIGSERIAL PRIMARY KEY,
			xfey_amount     DOUBLE PRECISION NOT NULL,
			fey_amount      DOUBLE PRECISION NOT NULL,
			conversion_rate DOUBLE PRECISION NOT NULL,
			gains_percent   DOUBLE PRECISION NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	insertRate = `
		INSERT INTO fey_rates (xfey_amount, fey_amount, conversion_rate, gains_percent)
		VALUES ($1, $2, $3, $4)`

	selectRecentRates = `
		SELECT id, xfey_amount, fey_amount, conversion_rate, gains_percent, created_at
		FROM fey_rates
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
)

// PostgresStore persists snapshots in the fey_rates table
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a history store on a pool shared with the rest of the process
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPool opens the process-wide connection pool and verifies connectivity
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}
	if minConns > 0 {
		poolConfig.MinConns = int32(minConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":      poolConfig.ConnConfig.Host,
		"db":        poolConfig.ConnConfig.Database,
		"max_conns": poolConfig.MaxConns,
		"min_conns": poolConfig.MinConns,
	}).Info("Connected to database")

	return pool, nil
}

// EnsureSchema creates the fey_rates table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createRatesTable); err != nil {
		return persistenceError("migrate", err)
	}
	return nil
}

// Append inserts one snapshot; created_at is set by the database
func (s *PostgresStore) Append(ctx context.Context, rate model.ConversionRate) error {
	_, err := s.db.Exec(ctx, insertRate,
		rate.XFeyAmount,
		rate.FeyAmount,
		rate.ConversionRate,
		rate.PercentageGain,
	)
	if err != nil {
		return persistenceError("append", err)
	}
	return nil
}

// Recent returns up to limit of the newest snapshots, oldest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	rows, err := s.db.Query(ctx, selectRecentRates, limit)
	if err != nil {
		return nil, persistenceError("query", err)
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		var rec model.HistoryRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.XFeyAmount,
			&rec.FeyAmount,
			&rec.ConversionRate,
			&rec.GainsPercent,
			&rec.CreatedAt,
		); err != nil {
			return nil, persistenceError("scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("query", err)
	}

	// newest-first from the query; the chart wants oldest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
