package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/history"
	"github.com/yourorg/xfey-rate-tracker/internal/metric"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// isoMillis matches the dashboard's ISO-8601 timestamps
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type errorResponse struct {
	Error string `json:"error"`
}

// collectResponse is returned by the collector endpoint
type collectResponse struct {
	Success        bool    `json:"success"`
	FeyAmount      float64 `json:"feyAmount"`
	ConversionRate float64 `json:"conversionRate"`
	PercentageGain float64 `json:"percentageGain"`
	Timestamp      string  `json:"timestamp"`
}

// serveMetric returns a handler serving o's value. headers are added to successful
// responses only.
func serveMetric[T any](o *metric.Orchestrator[T], headers map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := o.Handle(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, o.Config().FailureMessage)
			return
		}

		for k, v := range headers {
			w.Header().Set(k, v)
		}
		writeJSON(w, http.StatusOK, value)
	}
}

// handleCollect fetches the conversion rate from the chain and always persists it
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rate, err := s.metrics.ConversionRate.Collect(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, collectFailure(err))
		return
	}

	err = history.AppendDetached(ctx, s.history, rate)
	s.pipeline.ObserveHistoryWrite(err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"fey_amount": rate.FeyAmount,
			"error":      err,
		}).Error("Error saving to database")
		writeError(w, http.StatusInternalServerError, "Failed to save to database")
		return
	}

	writeJSON(w, http.StatusOK, collectResponse{
		Success:        true,
		FeyAmount:      rate.FeyAmount,
		ConversionRate: rate.ConversionRate,
		PercentageGain: rate.PercentageGain,
		Timestamp:      time.UnixMilli(rate.Timestamp).UTC().Format(isoMillis),
	})
}

// collectFailure distinguishes an answer carrying an error from a call that never
// completed
func collectFailure(err error) string {
	var upstream *types.UpstreamError
	if errors.As(err, &upstream) && upstream.Status != 0 {
		return metric.ConversionRate.FailureMessage
	}
	return "Data collection failed"
}

// handleHistory returns the most recent snapshots, oldest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, history.MaxLimit)
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Error loading history")
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"uptime":    time.Since(startTime).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
