package domain

import "time"

// Document is the immutable unit of retrievable text.
// Documents are created at ingestion time by an external collaborator
// and never mutated by this engine.
type Document struct {
	// ID is the unique, stable identifier for the document.
	ID string

	// TenantID scopes the document to one tenant's corpus.
	// It is never empty for an indexed document.
	TenantID string

	// Title is the human-readable title (e.g. an article reference).
	Title string

	// Content is the full passage text.
	Content string

	// Embedding is the precomputed vector representation.
	// One dimensionality per corpus.
	Embedding []float32

	// Metadata contains arbitrary key-value pairs (article reference,
	// source URL, etc).
	Metadata map[string]any

	// CreatedAt is when the document was indexed.
	CreatedAt time.Time
}

// RetrievalSource identifies which retriever produced a candidate.
type RetrievalSource string

// Available retrieval sources.
const (
	// SourceVector is cosine-similarity vector search.
	SourceVector RetrievalSource = "vector"

	// SourceLexical is full-text keyword search.
	SourceLexical RetrievalSource = "lexical"
)

// Candidate is a document reference plus its 1-based rank in the
// result list of a single retriever. Candidates are transient: they
// exist per-query and are discarded after fusion.
type Candidate struct {
	// Document is the matched document.
	Document *Document

	// Rank is the 1-based position in the source's result list.
	Rank int

	// Source identifies the retriever that produced this candidate.
	Source RetrievalSource

	// Score is the retriever's raw score (cosine similarity or BM25).
	// Raw scores from different sources are not comparable; they are
	// kept for logging only and never fused directly.
	Score float64
}

// FusedResult is a document after reciprocal rank fusion of the
// vector and lexical candidate lists.
type FusedResult struct {
	// Document is the fused document.
	Document *Document

	// Score is the accumulated reciprocal-rank score. Higher is better.
	Score float64

	// VectorRank is the 1-based rank in the vector list, or 0 if the
	// document was not returned by the vector retriever.
	VectorRank int

	// LexicalRank is the 1-based rank in the lexical list, or 0 if the
	// document was not returned by the lexical retriever.
	LexicalRank int
}

// Sources returns the set of retrievers that contributed to this result.
func (f FusedResult) Sources() []RetrievalSource {
	var sources []RetrievalSource
	if f.VectorRank > 0 {
		sources = append(sources, SourceVector)
	}
	if f.LexicalRank > 0 {
		sources = append(sources, SourceLexical)
	}
	return sources
}
