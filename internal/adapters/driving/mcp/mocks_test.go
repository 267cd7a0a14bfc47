package mcp

import (
	"context"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error
	gotReq driving.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.gotReq = req
	return m.answer, m.err
}

func (m *mockAskService) AskStream(_ context.Context, req driving.AskRequest) (<-chan domain.Event, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.Event, 1)
	if m.answer != nil {
		ch <- domain.DoneEvent{ConversationID: m.answer.ConversationID, Answer: *m.answer}
	}
	close(ch)
	return ch, nil
}
