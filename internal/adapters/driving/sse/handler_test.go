package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
)

// stubAskService replays a fixed event sequence.
type stubAskService struct {
	events    []domain.Event
	streamErr error
	gotReq    driving.AskRequest
}

func (s *stubAskService) AskStream(_ context.Context, req driving.AskRequest) (<-chan domain.Event, error) {
	s.gotReq = req
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	ch := make(chan domain.Event, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func (s *stubAskService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	return nil, nil
}

func TestHandler_StreamsEvents(t *testing.T) {
	svc := &stubAskService{
		events: []domain.Event{
			domain.StatusEvent{Stage: domain.AskStatusRetrieving, Message: "Searching the knowledge base"},
			domain.TokenEvent{Content: "The notice period "},
			domain.TokenEvent{Content: "is 30 days [1]."},
			domain.CitationsEvent{Citations: []domain.Citation{
				{Index: 1, DocumentID: "doc-1", Title: "Notice periods"},
			}},
			domain.DoneEvent{ConversationID: "conv-1", Answer: domain.Answer{Text: "The notice period is 30 days [1]."}},
		},
	}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"what is the notice period?","tenant_id":"tenant-1"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: status\n")
	assert.Contains(t, body, "event: token\n")
	assert.Contains(t, body, "event: citations\n")
	assert.Contains(t, body, "event: done\n")
	assert.Contains(t, body, `"content":"The notice period "`)
	assert.Contains(t, body, `"conversation_id":"conv-1"`)

	// Events arrive in pipeline order.
	assert.Less(t, strings.Index(body, "event: status"), strings.Index(body, "event: token"))
	assert.Less(t, strings.Index(body, "event: citations"), strings.Index(body, "event: done"))

	assert.Equal(t, "tenant-1", svc.gotReq.TenantID)
}

func TestHandler_ErrorEvent(t *testing.T) {
	svc := &stubAskService{
		events: []domain.Event{
			domain.StatusEvent{Stage: domain.AskStatusRetrieving, Message: "Searching the knowledge base"},
			domain.ErrorEvent{Message: "retrieval failed"},
		},
	}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"q","tenant_id":"tenant-1"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error\n")
	assert.Contains(t, rec.Body.String(), `"message":"retrieval failed"`)
}

func TestHandler_ValidationError(t *testing.T) {
	svc := &stubAskService{streamErr: domain.ErrTenantRequired}
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_InvalidJSON(t *testing.T) {
	handler := NewHandler(&stubAskService{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHandler(&stubAskService{})

	req := httptest.NewRequest(http.MethodGet, "/ask", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_EndToEndOverHTTP(t *testing.T) {
	svc := &stubAskService{
		events: []domain.Event{
			domain.TokenEvent{Content: "hello"},
			domain.DoneEvent{ConversationID: "c", Answer: domain.Answer{Text: "hello"}},
		},
	}
	server := httptest.NewServer(NewHandler(svc))
	defer server.Close()

	resp, err := http.Post(server.URL, "application/json",
		strings.NewReader(`{"question":"q","tenant_id":"tenant-1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
}
