package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/logger"
)

// Retriever runs the first stage of the pipeline: query embedding
// followed by concurrent vector and lexical search over one tenant's
// corpus.
type Retriever struct {
	embedder driven.EmbeddingService
	vector   driven.VectorSearcher
	lexical  driven.LexicalSearcher
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever. All three collaborators are
// required; settings gets defaults applied for unset values.
func NewRetriever(
	embedder driven.EmbeddingService,
	vector driven.VectorSearcher,
	lexical driven.LexicalSearcher,
	settings domain.RetrievalSettings,
) *Retriever {
	settings.ApplyDefaults()
	return &Retriever{
		embedder: embedder,
		vector:   vector,
		lexical:  lexical,
		settings: settings,
	}
}

// Retrieval is the outcome of one retrieval stage: the two ranked
// candidate lists plus whether one side failed and was skipped.
type Retrieval struct {
	Vector   []domain.Candidate
	Lexical  []domain.Candidate
	Degraded bool
}

// Retrieve embeds the query and runs both searches concurrently,
// each under its own timeout. If one side fails or times out the
// other side's results are used alone and the retrieval is marked
// degraded. Both sides failing is a hard error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string) (*Retrieval, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	logger.Section("Retrieval")
	logger.Debug("Tenant: %s, query: %q", tenantID, query)

	embedCtx, cancel := context.WithTimeout(ctx, r.settings.EmbedTimeout)
	embedding, err := r.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	limit := r.settings.TopKPerSource

	var vectorHits, lexicalHits []domain.Candidate
	var vectorErr, lexicalErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sctx, scancel := context.WithTimeout(ctx, r.settings.SearchTimeout)
		defer scancel()
		vectorHits, vectorErr = r.vector.VectorSearch(sctx, tenantID, embedding, limit)
	}()

	go func() {
		defer wg.Done()
		sctx, scancel := context.WithTimeout(ctx, r.settings.SearchTimeout)
		defer scancel()
		lexicalHits, lexicalErr = r.lexical.LexicalSearch(sctx, tenantID, query, limit)
	}()

	wg.Wait()

	// A caller cancellation is not a degradation; surface it directly.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if vectorErr != nil && lexicalErr != nil {
		logger.Warn("Both retrievers failed: vector=%v, lexical=%v", vectorErr, lexicalErr)
		return nil, fmt.Errorf("%w: vector=%v, lexical=%v",
			domain.ErrRetrievalFailed, vectorErr, lexicalErr)
	}

	result := &Retrieval{}

	if vectorErr != nil {
		logger.Warn("Vector search failed, continuing with lexical only: %v", vectorErr)
		result.Degraded = true
	} else {
		result.Vector = stampRanks(vectorHits, domain.SourceVector)
	}

	if lexicalErr != nil {
		logger.Warn("Lexical search failed, continuing with vector only: %v", lexicalErr)
		result.Degraded = true
	} else {
		result.Lexical = stampRanks(lexicalHits, domain.SourceLexical)
	}

	logger.Debug("Retrieved %d vector + %d lexical candidates",
		len(result.Vector), len(result.Lexical))

	return result, nil
}

// stampRanks records each candidate's 1-based position and source.
// Adapters return candidates best-first; the position in that order is
// authoritative, not the raw score.
func stampRanks(hits []domain.Candidate, source domain.RetrievalSource) []domain.Candidate {
	for i := range hits {
		hits[i].Rank = i + 1
		hits[i].Source = source
	}
	return hits
}
