package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorSearcher implements driven.VectorSearcher for testing.
type mockVectorSearcher struct {
	hits       []domain.Candidate
	err        error
	gotTenant  string
	gotLimit   int
}

func (m *mockVectorSearcher) VectorSearch(_ context.Context, tenantID string, _ []float32, limit int) ([]domain.Candidate, error) {
	m.gotTenant = tenantID
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

// mockLexicalSearcher implements driven.LexicalSearcher for testing.
type mockLexicalSearcher struct {
	hits      []domain.Candidate
	err       error
	gotTenant string
	gotQuery  string
}

func (m *mockLexicalSearcher) LexicalSearch(_ context.Context, tenantID, query string, limit int) ([]domain.Candidate, error) {
	m.gotTenant = tenantID
	m.gotQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

// mockRerankService implements driven.RerankService for testing.
// Scores are keyed by passage content; unknown passages score zero.
// calls counts single-passage requests, batches records each batch.
type mockRerankService struct {
	mu      sync.Mutex
	scores  map[string]float64
	err     error
	calls   int
	batches [][]string
}

func (m *mockRerankService) Score(_ context.Context, _, passage string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.scores[passage], nil
}

func (m *mockRerankService) ScoreBatch(_ context.Context, _ string, passages []string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]string(nil), passages...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = m.scores[p]
	}
	return out, nil
}

func (m *mockRerankService) ModelName() string { return "mock-rerank" }

func (m *mockRerankService) Ping(_ context.Context) error { return nil }

func (m *mockRerankService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing. Generate
// returns response; GenerateStream emits tokens one at a time.
type mockLLMService struct {
	response    string
	tokens      []string
	generateErr error
	streamErr   error
	gotPrompts  []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.gotPrompts = append(m.gotPrompts, prompt)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) GenerateStream(ctx context.Context, prompt string, _ driven.GenerateOptions, onToken driven.TokenFunc) error {
	m.gotPrompts = append(m.gotPrompts, prompt)
	if m.streamErr != nil {
		return m.streamErr
	}
	for _, token := range m.tokens {
		if err := onToken(ctx, token); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockConversationStore implements driven.ConversationStore in memory.
type mockConversationStore struct {
	mu        sync.Mutex
	turns     map[string][]domain.Turn
	appendErr error
	histErr   error
}

func newMockConversationStore() *mockConversationStore {
	return &mockConversationStore{turns: make(map[string][]domain.Turn)}
}

func (m *mockConversationStore) AppendTurn(_ context.Context, conversationID string, turn domain.Turn) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[conversationID] = append(m.turns[conversationID], turn)
	return nil
}

func (m *mockConversationStore) History(_ context.Context, conversationID string, limit int) ([]domain.Turn, error) {
	if m.histErr != nil {
		return nil, m.histErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[conversationID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (m *mockConversationStore) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() error { return nil }

// tenantDoc builds a document for the default test tenant.
func tenantDoc(id, title, content string) *domain.Document {
	return &domain.Document{
		ID:       id,
		TenantID: "tenant-1",
		Title:    title,
		Content:  content,
	}
}
