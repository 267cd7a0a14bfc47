package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/responsa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed tenant-scoped document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.responsa/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".responsa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or replaces a document in the tenant's corpus.
// The FTS index follows via triggers.
func (s *Store) SaveDocument(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" || doc.TenantID == "" {
		return fmt.Errorf("%w: document needs id and tenant_id", domain.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, title, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			title     = excluded.title,
			content   = excluded.content,
			embedding = excluded.embedding,
			metadata  = excluded.metadata
	`, doc.ID, doc.TenantID, doc.Title, doc.Content,
		float32SliceToBytes(doc.Embedding), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	return nil
}

// DeleteDocument removes a document from the tenant's corpus.
func (s *Store) DeleteDocument(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDocument retrieves a single document within a tenant's corpus.
func (s *Store) GetDocument(ctx context.Context, tenantID, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, title, content, embedding, metadata, created_at
		FROM documents
		WHERE id = ? AND tenant_id = ?
	`, id, tenantID)

	return scanDocument(row)
}

// CountDocuments returns the tenant's corpus size.
func (s *Store) CountDocuments(ctx context.Context, tenantID string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE tenant_id = ?", tenantID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// LexicalSearch runs a BM25-ranked full-text query over the tenant's
// corpus. bm25() returns lower-is-better, so results are ordered
// ascending and the score negated so that higher means more relevant.
func (s *Store) LexicalSearch(ctx context.Context, tenantID, query string, limit int) ([]domain.Candidate, error) {
	match := ftsQuery(query)
	if match == "" {
		return []domain.Candidate{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.tenant_id, d.title, d.content, d.embedding, d.metadata, d.created_at,
		       bm25(documents_fts) AS rank
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE documents_fts MATCH ? AND d.tenant_id = ?
		ORDER BY rank ASC, d.id ASC
		LIMIT ?
	`, match, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		doc, score, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, domain.Candidate{
			Document: doc,
			Score:    -score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexical search rows: %w", err)
	}

	return candidates, nil
}

// VectorSearch scans the tenant's embeddings and ranks by cosine
// similarity. Equal scores tie-break by document ID ascending so the
// ordering is reproducible.
func (s *Store) VectorSearch(ctx context.Context, tenantID string, embedding []float32, limit int) ([]domain.Candidate, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, title, content, embedding, metadata, created_at
		FROM documents
		WHERE tenant_id = ? AND embedding IS NOT NULL
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		doc, _, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		score, ok := cosineSimilarity(embedding, doc.Embedding)
		if !ok {
			// Dimensionality mismatch; skip rather than poison the ranking.
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Document: doc,
			Score:    score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search rows: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ftsQuery builds an FTS5 MATCH expression from free text. Each term
// is quoted to neutralise FTS5 operators and the terms are OR-joined
// so partial matches still rank.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, "")
		if term == "" {
			continue
		}
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// cosineSimilarity returns the cosine of the angle between two
// vectors, or false when they cannot be compared.
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

// scanner abstracts *sql.Row and *sql.Rows for document scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, _, err := scanDocumentColumns(row, false)
	return doc, err
}

// scanDocumentRow scans a document row that may carry a trailing
// rank column.
func scanDocumentRow(rows *sql.Rows) (*domain.Document, float64, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, fmt.Errorf("reading columns: %w", err)
	}
	return scanDocumentColumns(rows, len(cols) == 8)
}

func scanDocumentColumns(s scanner, withRank bool) (*domain.Document, float64, error) {
	var doc domain.Document
	var embeddingBlob []byte
	var metadataJSON string
	var rank float64

	dest := []any{&doc.ID, &doc.TenantID, &doc.Title, &doc.Content,
		&embeddingBlob, &metadataJSON, &doc.CreatedAt}
	if withRank {
		dest = append(dest, &rank)
	}

	if err := s.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("scanning document: %w", err)
	}

	doc.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, 0, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, rank, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
