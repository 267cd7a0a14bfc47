package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTenantRequired indicates an ask call without a tenant identifier.
	// Retrieval is always scoped to one tenant's corpus.
	ErrTenantRequired = errors.New("tenant identifier required")

	// ErrRetrievalFailed indicates both retrievers failed hard.
	// A single-retriever failure degrades instead of erroring.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the language model call failed.
	// A partial answer is never promoted to done.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout indicates generation exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrRerankerUnavailable indicates the re-ranking model could not be
	// reached. Recovered locally by falling back to fused order.
	ErrRerankerUnavailable = errors.New("re-ranking model unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. Vector retrieval is disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStoreUnavailable indicates the document store is not configured.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
