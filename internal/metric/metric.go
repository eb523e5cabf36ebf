// Package metric implements the per-metric fetch pipeline: check the cache, call the
// upstream adapter on a miss, fill the cache and run any post-fetch side effect.
//
// There is no per-key locking. Concurrent misses for the same metric may each call
// the upstream; adapters are idempotent reads so the results are consistent.
package metric

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/cache"
	"github.com/yourorg/xfey-rate-tracker/internal/otel"
)

// Fetcher is an upstream adapter producing records of type T
type Fetcher[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// Config names a metric, its cache key and TTL, and the message returned to
// clients when it cannot be produced
type Config struct {
	Name           string
	Key            string
	TTL            time.Duration
	FailureMessage string
}

// FetchError is returned when the upstream call fails. Message is safe to show to
// clients; Err carries the cause for logs.
type FetchError struct {
	Metric  string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Orchestrator serves one metric
type Orchestrator[T any] struct {
	cfg        Config
	cache      cache.Store
	fetcher    Fetcher[T]
	afterFetch func(ctx context.Context, value T)
	metrics    *Metrics
}

// New creates an orchestrator for cfg backed by store and fetcher
func New[T any](cfg Config, store cache.Store, fetcher Fetcher[T]) *Orchestrator[T] {
	return &Orchestrator[T]{
		cfg:     cfg,
		cache:   store,
		fetcher: fetcher,
	}
}

// WithAfterFetch sets a hook run after every successful upstream fetch. The hook
// cannot change the result.
func (o *Orchestrator[T]) WithAfterFetch(fn func(ctx context.Context, value T)) *Orchestrator[T] {
	o.afterFetch = fn
	return o
}

// WithMetrics attaches prometheus collectors
func (o *Orchestrator[T]) WithMetrics(m *Metrics) *Orchestrator[T] {
	o.metrics = m
	return o
}

// Config returns the metric configuration
func (o *Orchestrator[T]) Config() Config {
	return o.cfg
}

// Handle returns the cached value if present and unexpired, otherwise fetches,
// caches and returns a fresh one. Failures are never cached.
func (o *Orchestrator[T]) Handle(ctx context.Context) (T, error) {
	log := logrus.WithFields(logrus.Fields{"metric": o.cfg.Name, "key": o.cfg.Key})

	if raw, ok := o.cache.Get(ctx, o.cfg.Key); ok {
		var cached T
		err := json.Unmarshal(raw, &cached)
		if err == nil {
			o.metrics.cacheLookup(o.cfg.Name, true)
			return cached, nil
		}
		log.WithError(err).Warn("Ignoring undecodable cache entry")
	}
	o.metrics.cacheLookup(o.cfg.Name, false)

	value, err := o.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).Warn("Failed to encode value for cache")
	} else if err := o.cache.Set(ctx, o.cfg.Key, raw, o.cfg.TTL); err != nil {
		log.WithError(err).Warn("Cache write failed")
	}

	if o.afterFetch != nil {
		o.afterFetch(ctx, value)
	}
	return value, nil
}

// Collect always calls the upstream, bypassing the cache in both directions. The
// post-fetch hook is not run; callers that persist do so themselves so they can
// report the failure.
func (o *Orchestrator[T]) Collect(ctx context.Context) (T, error) {
	return o.fetch(ctx)
}

// fetch calls the adapter inside a span and converts failures to *FetchError
func (o *Orchestrator[T]) fetch(ctx context.Context) (T, error) {
	ctx, span := otel.Tracer().Start(ctx, "fetch "+o.cfg.Name)
	defer span.End()

	start := time.Now()
	value, err := o.fetcher.Fetch(ctx)
	o.metrics.observeFetch(o.cfg.Name, time.Since(start))

	if err != nil {
		otel.RecordError(ctx, err)
		o.metrics.upstreamError(o.cfg.Name)
		logrus.WithFields(logrus.Fields{
			"metric": o.cfg.Name,
			"error":  err,
		}).Error("Upstream fetch failed")

		var zero T
		return zero, &FetchError{Metric: o.cfg.Name, Message: o.cfg.FailureMessage, Err: err}
	}
	return value, nil
}
