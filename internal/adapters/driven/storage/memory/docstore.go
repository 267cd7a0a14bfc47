// Package memory provides in-memory implementations of driven port
// interfaces. Useful for tests and quick experiments; nothing here
// survives a restart.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Vector search is a cosine scan; lexical search is term-overlap
// scoring over whitespace-split terms. Both honour tenant scoping.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" || doc.TenantID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// GetDocument retrieves a document by ID within a tenant's corpus.
func (s *DocumentStore) GetDocument(_ context.Context, tenantID, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// VectorSearch returns the tenant's documents ordered by cosine
// similarity to the query embedding, best first. Documents whose
// embedding dimensionality differs from the query are skipped.
func (s *DocumentStore) VectorSearch(ctx context.Context, tenantID string, embedding []float32, limit int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []domain.Candidate
	for id := range s.documents {
		doc := s.documents[id]
		if doc.TenantID != tenantID {
			continue
		}
		score, ok := cosineSimilarity(embedding, doc.Embedding)
		if !ok {
			continue
		}
		d := doc
		candidates = append(candidates, domain.Candidate{
			Document: &d,
			Source:   domain.SourceVector,
			Score:    score,
		})
	}

	return sortAndTrim(candidates, limit), nil
}

// LexicalSearch scores the tenant's documents by how many query terms
// appear in the title or content, case-insensitively.
func (s *DocumentStore) LexicalSearch(ctx context.Context, tenantID, query string, limit int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []domain.Candidate
	for id := range s.documents {
		doc := s.documents[id]
		if doc.TenantID != tenantID {
			continue
		}
		text := strings.ToLower(doc.Title + " " + doc.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		d := doc
		candidates = append(candidates, domain.Candidate{
			Document: &d,
			Source:   domain.SourceLexical,
			Score:    float64(matched),
		})
	}

	return sortAndTrim(candidates, limit), nil
}

// Close is a no-op for the in-memory store.
func (s *DocumentStore) Close() error {
	return nil
}

// sortAndTrim orders candidates best-first with a deterministic ID
// tie-break and truncates to limit.
func sortAndTrim(candidates []domain.Candidate, limit int) []domain.Candidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Returns false when the vectors differ in length or either has zero
// magnitude.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
