// Package fetch provides one client per upstream data source. Every client makes a
// single attempt per call and reports failures as *types.UpstreamError or
// *types.ConfigError.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// Client is implemented by every upstream adapter
type Client[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// maxErrorBody bounds how much of an error response is kept for diagnostics
const maxErrorBody = 1024

// NewHTTPClient creates the HTTP client shared by all adapters. It makes a single
// attempt and passes non-success responses through to the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{entry: logrus.WithField("component", "upstream-http")}
	retryClient.HTTPClient.Timeout = timeout
	return retryClient.StandardClient()
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Info(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}

// getJSON performs a GET against url and decodes a 2xx JSON body into dst
func getJSON(ctx context.Context, client *http.Client, source, url string, header http.Header, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	logrus.WithField("source", source).Debug("Fetching upstream data")
	resp, err := client.Do(req)
	if err != nil {
		return &types.UpstreamError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &types.UpstreamError{Source: source, Status: resp.StatusCode, Detail: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &types.UpstreamError{Source: source, Status: resp.StatusCode, Detail: "malformed payload", Err: err}
	}
	return nil
}
