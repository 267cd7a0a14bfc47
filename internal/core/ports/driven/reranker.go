package driven

import "context"

// RerankService scores (query, passage) pairs with a cross-attention
// relevance model. Joint encoding is far more discriminative than
// independent embedding similarity, and far more expensive, so it only
// ever runs on the already-fused candidate set, never the whole corpus.
//
// The service is stateless and batchable. This is an optional service:
// when nil or unreachable, the engine falls back to fused order.
type RerankService interface {
	// Score returns the relevance of a single passage to the query.
	// Higher is better; the scale is model-defined and unbounded.
	Score(ctx context.Context, query, passage string) (float64, error)

	// ScoreBatch scores multiple passages against one query. The
	// result is index-aligned with the input.
	ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error)

	// ModelName returns the name of the re-ranking model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
