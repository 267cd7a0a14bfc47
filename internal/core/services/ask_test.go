package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
)

// newTestAskService wires the full pipeline from mocks. Pass nil for
// optional collaborators to exercise degraded paths.
func newTestAskService(t *testing.T,
	vector *mockVectorSearcher,
	lexical *mockLexicalSearcher,
	reranker *mockRerankService,
	llm *mockLLMService,
	conversations *mockConversationStore,
) *AskService {
	t.Helper()

	settings := domain.RetrievalSettings{}
	retriever := NewRetriever(&mockEmbeddingService{}, vector, lexical, settings)

	var rr *Ranker
	var err error
	if reranker != nil {
		rr, err = NewRanker(reranker, settings)
	} else {
		rr, err = NewRanker(nil, settings)
	}
	require.NoError(t, err)
	t.Cleanup(rr.Close)

	assembler := NewAssembler(nil, settings)

	// A typed nil must not reach the orchestrator's interface fields.
	if conversations != nil {
		return NewAskService(retriever, rr, assembler, llm, conversations, settings)
	}
	return NewAskService(retriever, rr, assembler, llm, nil, settings)
}

func collectEvents(t *testing.T, events <-chan domain.Event) []domain.Event {
	t.Helper()

	var collected []domain.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, event)
		case <-timeout:
			t.Fatal("timed out waiting for event stream to close")
		}
	}
}

func eventKinds(events []domain.Event) []string {
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind()
	}
	return kinds
}

func defaultCorpus() (*mockVectorSearcher, *mockLexicalSearcher) {
	vector := &mockVectorSearcher{hits: []domain.Candidate{
		{Document: tenantDoc("d1", "Article 278", "Notice periods are fourteen days.")},
		{Document: tenantDoc("d2", "Article 12", "Contracts require written form.")},
	}}
	lexical := &mockLexicalSearcher{hits: []domain.Candidate{
		{Document: tenantDoc("d1", "Article 278", "Notice periods are fourteen days.")},
	}}
	return vector, lexical
}

func TestAskStream_EventOrdering(t *testing.T) {
	vector, lexical := defaultCorpus()
	reranker := &mockRerankService{scores: map[string]float64{
		"Notice periods are fourteen days.": 0.9,
		"Contracts require written form.":   0.2,
	}}
	llm := &mockLLMService{
		tokens:   []string{"The notice period ", "is fourteen days [1]."},
		response: "What happens after the notice period?",
	}

	svc := newTestAskService(t, vector, lexical, reranker, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "What is the notice period?",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	kinds := eventKinds(collected)

	// Status events precede tokens; citations follow the last token;
	// done is last and unique.
	assert.Equal(t, []string{
		"status", "status", "status", "status",
		"token", "token",
		"citations",
		"suggested_questions",
		"done",
	}, kinds)

	// Stages arrive in pipeline order.
	var stages []domain.AskStatus
	for _, e := range collected {
		if status, ok := e.(domain.StatusEvent); ok {
			stages = append(stages, status.Stage)
		}
	}
	assert.Equal(t, []domain.AskStatus{
		domain.AskStatusRetrieving,
		domain.AskStatusFusing,
		domain.AskStatusReranking,
		domain.AskStatusGenerating,
	}, stages)

	done, ok := collected[len(collected)-1].(domain.DoneEvent)
	require.True(t, ok)
	assert.Equal(t, "The notice period is fourteen days [1].", done.Answer.Text)
	assert.False(t, done.Answer.Degraded)
	assert.NotEmpty(t, done.ConversationID)

	// The top-ranked passage got citation index 1.
	require.NotEmpty(t, done.Answer.Citations)
	assert.Equal(t, 1, done.Answer.Citations[0].Index)
	assert.Equal(t, "d1", done.Answer.Citations[0].DocumentID)
}

func TestAskStream_EmptyCorpus(t *testing.T) {
	llm := &mockLLMService{}
	svc := newTestAskService(t, &mockVectorSearcher{}, &mockLexicalSearcher{}, nil, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "anything?",
		TenantID: "empty-tenant",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)

	done, ok := collected[len(collected)-1].(domain.DoneEvent)
	require.True(t, ok, "stream must end with done, not error")
	assert.Equal(t, noAnswerText, done.Answer.Text)
	assert.Empty(t, done.Answer.Citations)

	// No generation call was made.
	assert.Empty(t, llm.gotPrompts)
}

func TestAskStream_DegradedWithoutReranker(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{tokens: []string{"answer [1]"}}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	done, ok := collected[len(collected)-1].(domain.DoneEvent)
	require.True(t, ok)
	assert.True(t, done.Answer.Degraded)
}

func TestAskStream_DegradedWhenRetrievalArmFails(t *testing.T) {
	// Lexical search is down but vector search and the re-ranker both
	// work: the answer still completes, flagged degraded.
	vector, _ := defaultCorpus()
	lexical := &mockLexicalSearcher{err: errors.New("fts index corrupt")}
	reranker := &mockRerankService{scores: map[string]float64{
		"Notice periods are fourteen days.": 0.9,
		"Contracts require written form.":   0.2,
	}}
	llm := &mockLLMService{tokens: []string{"fourteen days [1]"}}

	svc := newTestAskService(t, vector, lexical, reranker, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	done, ok := collected[len(collected)-1].(domain.DoneEvent)
	require.True(t, ok, "a single failed retrieval arm must not fail the ask")
	assert.True(t, done.Answer.Degraded)
	assert.NotEmpty(t, done.Answer.Citations)
}

func TestAskStream_GenerationFailureEmitsError(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{streamErr: errors.New("model exploded")}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)

	last := collected[len(collected)-1]
	errEvent, ok := last.(domain.ErrorEvent)
	require.True(t, ok, "stream must end with an error event")
	assert.Contains(t, errEvent.Message, "model exploded")

	// Exactly one terminal event.
	terminals := 0
	for _, e := range collected {
		switch e.(type) {
		case domain.DoneEvent, domain.ErrorEvent:
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestAskStream_RetrievalFailureEmitsError(t *testing.T) {
	vector := &mockVectorSearcher{err: errors.New("down")}
	lexical := &mockLexicalSearcher{err: errors.New("down")}
	llm := &mockLLMService{}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	_, ok := collected[len(collected)-1].(domain.ErrorEvent)
	assert.True(t, ok)
}

func TestAskStream_ValidationRejectedSynchronously(t *testing.T) {
	llm := &mockLLMService{}
	svc := newTestAskService(t, &mockVectorSearcher{}, &mockLexicalSearcher{}, nil, llm, nil)

	_, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "  ", TenantID: "tenant-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "",
	})
	assert.ErrorIs(t, err, domain.ErrTenantRequired)
}

func TestAskStream_CancellationClosesStream(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{tokens: []string{"a", "b", "c", "d"}}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := svc.AskStream(ctx, driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	cancel()

	// The channel must close promptly; whether any events were already
	// buffered before cancellation is timing-dependent.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestAskStream_PersistsTurnAndThreadsHistory(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{tokens: []string{"fourteen days [1]"}}
	store := newMockConversationStore()

	svc := newTestAskService(t, vector, lexical, nil, llm, store)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question:       "What is the notice period?",
		TenantID:       "tenant-1",
		ConversationID: "conv-42",
	})
	require.NoError(t, err)
	collectEvents(t, events)

	turns, err := store.History(context.Background(), "conv-42", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "What is the notice period?", turns[0].Question)
	assert.Equal(t, "fourteen days [1]", turns[0].Answer)

	// The second ask in the same conversation sees the first turn.
	events, err = svc.AskStream(context.Background(), driving.AskRequest{
		Question:       "And after that?",
		TenantID:       "tenant-1",
		ConversationID: "conv-42",
	})
	require.NoError(t, err)
	collectEvents(t, events)

	var generationPrompt string
	for _, p := range llm.gotPrompts {
		if strings.Contains(p, "And after that?") && strings.Contains(p, "Source passages") {
			generationPrompt = p
		}
	}
	require.NotEmpty(t, generationPrompt)
	assert.Contains(t, generationPrompt, "User: What is the notice period?")
}

func TestAsk_NonStreaming(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{tokens: []string{"fourteen ", "days [1]"}}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	answer, err := svc.Ask(context.Background(), driving.AskRequest{
		Question: "What is the notice period?",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "fourteen days [1]", answer.Text)
	assert.NotEmpty(t, answer.Citations)
	assert.NotEmpty(t, answer.ConversationID)
}

func TestAsk_NonStreamingError(t *testing.T) {
	vector := &mockVectorSearcher{err: errors.New("down")}
	lexical := &mockLexicalSearcher{err: errors.New("down")}
	llm := &mockLLMService{}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	_, err := svc.Ask(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	assert.Error(t, err)
}

func TestAskStream_SuggestionFailureIsSilent(t *testing.T) {
	vector, lexical := defaultCorpus()
	llm := &mockLLMService{
		tokens:      []string{"answer [1]"},
		generateErr: errors.New("suggestions model down"),
	}

	svc := newTestAskService(t, vector, lexical, nil, llm, nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{
		Question: "q?", TenantID: "tenant-1",
	})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	done, ok := collected[len(collected)-1].(domain.DoneEvent)
	require.True(t, ok, "suggestion failure must not fail the ask")
	assert.Empty(t, done.Answer.Suggestions)
}
