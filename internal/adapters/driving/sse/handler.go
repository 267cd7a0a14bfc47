// Package sse provides the HTTP server-sent-events transport for the
// ask pipeline. Each domain event becomes one SSE message whose event
// name is the domain kind and whose data is the event's JSON body.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
	"github.com/custodia-labs/responsa/internal/logger"
)

// askRequest is the JSON body of POST /ask.
type askRequest struct {
	Question       string `json:"question"`
	TenantID       string `json:"tenant_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Handler serves the ask pipeline over SSE.
type Handler struct {
	ask driving.AskService
}

// NewHandler creates an SSE handler backed by the given ask service.
func NewHandler(ask driving.AskService) *Handler {
	return &Handler{ask: ask}
}

// ServeHTTP implements http.Handler for POST /ask.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	events, err := h.ask.AskStream(r.Context(), driving.AskRequest{
		Question:       req.Question,
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrTenantRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		if err := writeEvent(w, event); err != nil {
			// Client went away; drain the channel so the pipeline
			// goroutine can finish.
			logger.Debug("SSE write failed: %v", err)
			for range events { //nolint:revive // intentional drain
			}
			return
		}
		flusher.Flush()
	}
}

// writeEvent serialises one domain event as an SSE message. The switch
// is exhaustive over the closed event union; an unknown kind is a
// programming error and is skipped loudly.
func writeEvent(w http.ResponseWriter, event domain.Event) error {
	var payload any

	switch e := event.(type) {
	case domain.StatusEvent:
		payload = e
	case domain.TokenEvent:
		payload = e
	case domain.CitationsEvent:
		payload = e
	case domain.SuggestionsEvent:
		payload = e
	case domain.DoneEvent:
		payload = e
	case domain.ErrorEvent:
		payload = e
	default:
		logger.Warn("Unknown event kind %q, skipping", event.Kind())
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Kind(), err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind(), data)
	return err
}
