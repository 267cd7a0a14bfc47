package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
	"github.com/custodia-labs/responsa/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// eventBuffer sizes the stream channel. Token emission outpaces most
// consumers briefly; the buffer absorbs bursts without blocking the
// generation callback.
const eventBuffer = 16

// noAnswerText is returned when retrieval finds nothing for the tenant.
const noAnswerText = "I could not find any relevant information in the knowledge base for this question."

// suggestionsTimeout bounds the optional follow-up generation call.
const suggestionsTimeout = 10 * time.Second

// maxSuggestions caps follow-up questions per answer.
const maxSuggestions = 3

// AskService orchestrates the full ask pipeline: retrieve, fuse,
// re-rank, assemble, generate, cite. It owns the stage ordering and
// the event stream contract; the stages themselves live in the other
// services of this package.
type AskService struct {
	retriever     *Retriever
	ranker        *Ranker
	assembler     *Assembler
	llm           driven.LLMService
	conversations driven.ConversationStore
	settings      domain.RetrievalSettings
}

// NewAskService creates the orchestrator. conversations may be nil, in
// which case asks are stateless and history is never included.
func NewAskService(
	retriever *Retriever,
	ranker *Ranker,
	assembler *Assembler,
	llm driven.LLMService,
	conversations driven.ConversationStore,
	settings domain.RetrievalSettings,
) *AskService {
	settings.ApplyDefaults()
	return &AskService{
		retriever:     retriever,
		ranker:        ranker,
		assembler:     assembler,
		llm:           llm,
		conversations: conversations,
		settings:      settings,
	}
}

// AskStream validates the request and starts the pipeline, returning
// the event stream. The channel is closed after exactly one terminal
// event, or without one only when ctx is cancelled.
func (s *AskService) AskStream(ctx context.Context, req driving.AskRequest) (<-chan domain.Event, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if req.TenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	events := make(chan domain.Event, eventBuffer)
	go s.run(ctx, req, events)
	return events, nil
}

// Ask runs the pipeline without streaming by draining its own stream.
func (s *AskService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	events, err := s.AskStream(ctx, req)
	if err != nil {
		return nil, err
	}

	for event := range events {
		switch e := event.(type) {
		case domain.DoneEvent:
			answer := e.Answer
			return &answer, nil
		case domain.ErrorEvent:
			return nil, fmt.Errorf("ask: %s", e.Message)
		}
	}

	// Channel closed without a terminal event: the context was cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.ErrGenerationFailed
}

// run executes the pipeline stages in order, emitting events as it
// goes. It always closes the channel, and sends exactly one terminal
// event unless the consumer's context is cancelled first.
func (s *AskService) run(ctx context.Context, req driving.AskRequest, events chan<- domain.Event) {
	defer close(events)

	session := &domain.AskSession{
		ConversationID: req.ConversationID,
		TenantID:       req.TenantID,
		Question:       req.Question,
	}

	logger.Section("Ask Pipeline")
	logger.Debug("Conversation: %s, tenant: %s", session.ConversationID, session.TenantID)

	if !s.advance(ctx, events, session, domain.AskStatusRetrieving, "Searching the knowledge base") {
		return
	}

	retrieval, err := s.retriever.Retrieve(ctx, session.TenantID, session.Question)
	if err != nil {
		s.fail(ctx, events, session, err)
		return
	}

	if !s.advance(ctx, events, session, domain.AskStatusFusing, "Fusing retrieval results") {
		return
	}

	fused := FuseRankings(retrieval.Vector, retrieval.Lexical, s.settings.FusionK)
	logger.Debug("Fused to %d candidates", len(fused))

	if len(fused) == 0 {
		s.finishEmpty(ctx, req, session, events)
		return
	}

	if !s.advance(ctx, events, session, domain.AskStatusReranking, "Ranking passages") {
		return
	}

	passages, rankDegraded := s.ranker.Rank(ctx, session.Question, fused)
	degraded := retrieval.Degraded || rankDegraded

	history := s.loadHistory(ctx, session.ConversationID)
	assembly := s.assembler.Assemble(session.Question, passages, history)

	if !s.advance(ctx, events, session, domain.AskStatusGenerating, "Generating answer") {
		return
	}

	text, err := s.generate(ctx, events, assembly.Prompt)
	if err != nil {
		s.fail(ctx, events, session, err)
		return
	}
	session.AnswerText = text

	if !s.emit(ctx, events, domain.CitationsEvent{Citations: assembly.Citations}) {
		return
	}

	suggestions := s.suggest(ctx, session.Question, session.AnswerText)
	if len(suggestions) > 0 {
		if !s.emit(ctx, events, domain.SuggestionsEvent{Questions: suggestions}) {
			return
		}
	}

	answer := domain.Answer{
		ConversationID: session.ConversationID,
		Text:           session.AnswerText,
		Citations:      assembly.Citations,
		Suggestions:    suggestions,
		Degraded:       degraded,
	}

	s.persistTurn(ctx, req, &answer)

	s.advance(ctx, events, session, domain.AskStatusDone, "")
	s.emit(ctx, events, domain.DoneEvent{
		ConversationID: session.ConversationID,
		Answer:         answer,
	})
}

// generate streams the answer, forwarding each token as an event, and
// returns the accumulated text. The stage runs under its own timeout;
// a timeout fails the ask rather than reporting a truncated answer as
// complete.
func (s *AskService) generate(ctx context.Context, events chan<- domain.Event, prompt string) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, s.settings.GenerateTimeout)
	defer cancel()

	var text strings.Builder
	err := s.llm.GenerateStream(gctx, prompt, driven.GenerateOptions{}, func(tctx context.Context, token string) error {
		text.WriteString(token)
		if !s.emit(tctx, events, domain.TokenEvent{Content: token}) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: after %s", domain.ErrGenerationTimeout, s.settings.GenerateTimeout)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	return text.String(), nil
}

// finishEmpty completes an ask whose retrieval found nothing: a canned
// answer, an empty citation list and a normal done event.
func (s *AskService) finishEmpty(ctx context.Context, req driving.AskRequest, session *domain.AskSession, events chan<- domain.Event) {
	logger.Info("No candidates for tenant %s, returning canned answer", session.TenantID)

	session.AnswerText = noAnswerText
	if !s.emit(ctx, events, domain.TokenEvent{Content: noAnswerText}) {
		return
	}
	if !s.emit(ctx, events, domain.CitationsEvent{Citations: []domain.Citation{}}) {
		return
	}

	answer := domain.Answer{
		ConversationID: session.ConversationID,
		Text:           noAnswerText,
		Citations:      []domain.Citation{},
	}

	s.persistTurn(ctx, req, &answer)

	s.advance(ctx, events, session, domain.AskStatusDone, "")
	s.emit(ctx, events, domain.DoneEvent{
		ConversationID: session.ConversationID,
		Answer:         answer,
	})
}

// suggest asks the LLM for follow-up questions. Failures are silent:
// suggestions are a nicety, never worth failing a completed answer.
func (s *AskService) suggest(ctx context.Context, question, answer string) []string {
	if ctx.Err() != nil {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, suggestionsTimeout)
	defer cancel()

	prompt := s.assembler.SuggestionsPrompt(question, answer)
	raw, err := s.llm.Generate(sctx, prompt, driven.GenerateOptions{MaxTokens: 200})
	if err != nil {
		logger.Debug("Suggestions unavailable: %v", err)
		return nil
	}

	return parseSuggestions(raw)
}

// loadHistory fetches bounded conversation history. A store error
// degrades to no history.
func (s *AskService) loadHistory(ctx context.Context, conversationID string) []domain.Turn {
	if s.conversations == nil {
		return nil
	}

	history, err := s.conversations.History(ctx, conversationID, s.settings.MaxHistoryTurns)
	if err != nil {
		logger.Warn("History unavailable for %s: %v", conversationID, err)
		return nil
	}
	return history
}

// persistTurn records the completed exchange. A store error is logged
// and swallowed: the answer has already been delivered.
func (s *AskService) persistTurn(ctx context.Context, req driving.AskRequest, answer *domain.Answer) {
	if s.conversations == nil {
		return
	}

	turn := domain.Turn{
		Question:  req.Question,
		Answer:    answer.Text,
		Citations: answer.Citations,
	}
	if err := s.conversations.AppendTurn(ctx, req.ConversationID, turn); err != nil {
		logger.Warn("Failed to persist turn for %s: %v", req.ConversationID, err)
	}
}

// fail emits the single terminal error event.
func (s *AskService) fail(ctx context.Context, events chan<- domain.Event, session *domain.AskSession, err error) {
	logger.Warn("Ask failed: %v", err)
	s.advance(ctx, events, session, domain.AskStatusFailed, "")
	s.emit(ctx, events, domain.ErrorEvent{Message: err.Error()})
}

// advance moves the session into the given lifecycle state and reports
// non-terminal states on the stream. Terminal states carry no status
// event of their own; the done and error events announce them.
func (s *AskService) advance(ctx context.Context, events chan<- domain.Event, session *domain.AskSession, status domain.AskStatus, message string) bool {
	session.Status = status
	if status.Terminal() {
		return true
	}
	return s.emit(ctx, events, domain.StatusEvent{Stage: status, Message: message})
}

// emit sends one event unless the consumer's context is done. A false
// return means the ask is abandoned and no further events may be sent.
func (s *AskService) emit(ctx context.Context, events chan<- domain.Event, event domain.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}

// parseSuggestions extracts questions from LLM output, tolerating
// numbering and bullet prefixes the model adds despite instructions.
func parseSuggestions(raw string) []string {
	var suggestions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
