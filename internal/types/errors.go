package types

import (
	"fmt"
)

// ConfigError reports a required credential or endpoint that is missing.
// It is never retried.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s not configured", e.Key)
}

// UpstreamError reports a non-success status, a malformed payload or an RPC error
// returned by an external source.
type UpstreamError struct {
	// Source names the upstream (e.g. "base-rpc", "dexscreener")
	Source string

	// Status is the HTTP status code, or the JSON-RPC error code for RPC failures.
	// Zero when the request never produced a response.
	Status int

	// Detail carries the response body or RPC error message for diagnostics
	Detail string

	Err error
}

func (e *UpstreamError) Error() string {
	msg := e.Source + " upstream error"
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed history-store write or read
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
