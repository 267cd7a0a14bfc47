// Package sqlite provides the local SQLite-backed document store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. A single database holds
// the tenant-scoped corpus and serves both retrieval halves:
//
//   - LexicalSearch: FTS5 full-text index ranked with bm25()
//   - VectorSearch: brute-force cosine scan over stored embeddings
//
// The brute-force scan is deliberate: local corpora are small enough that a
// full scan stays well under the retrieval timeout, and it needs no extra
// index to keep consistent. Larger deployments point the vector half at
// Milvus instead and keep this store for lexical search only.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. The FTS5 index is an external-content table kept in
// sync with the documents table by triggers.
//
// # Data Location
//
// By default, the database is stored at ~/.responsa/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
