// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - VectorSearcher / LexicalSearcher: tenant-scoped retrieval. A
//     DocumentStore provides both halves; an external vector index
//     (e.g. Milvus) may replace the vector half alone.
//   - EmbeddingService: turns query text into a fixed-length vector.
//   - LLMService: grounded answer generation with token streaming.
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - RerankService: cross-encoder scoring. Without it the fused RRF
//     order is used directly, flagged as degraded.
//   - ConversationStore: turn persistence and history. Without it each
//     ask is independent.
//   - PromptStore: user-customisable prompt templates. Without it the
//     embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
