package driven

import (
	"context"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// VectorSearcher is the semantic half of corpus retrieval.
type VectorSearcher interface {
	// VectorSearch returns the tenant's documents most similar to the
	// query embedding, best first, at most limit entries. Similarity is
	// cosine. The tenant filter is applied before ranking: cross-tenant
	// leakage is a correctness violation. An empty corpus yields an
	// empty list, not an error. For a fixed index snapshot the result
	// is deterministic; equal scores tie-break by document ID ascending.
	//
	// Returned candidates carry Document and Score; Rank and Source are
	// stamped by the retrieval service.
	VectorSearch(ctx context.Context, tenantID string, embedding []float32, limit int) ([]domain.Candidate, error)
}

// LexicalSearcher is the keyword half of corpus retrieval.
type LexicalSearcher interface {
	// LexicalSearch returns the tenant's documents ranked by full-text
	// relevance (BM25 or equivalent), best first, at most limit
	// entries. Ranking must be stable and reproducible for the same
	// corpus snapshot and query. The same tenant filter as
	// VectorSearch applies.
	LexicalSearch(ctx context.Context, tenantID, query string, limit int) ([]domain.Candidate, error)
}

// DocumentStore is the tenant-scoped corpus store. It is read-only
// from the engine's perspective: ingestion and deletion belong to an
// external collaborator.
type DocumentStore interface {
	VectorSearcher
	LexicalSearcher

	// GetDocument retrieves a single document within a tenant's corpus.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, tenantID, id string) (*domain.Document, error)

	// Close releases resources.
	Close() error
}
