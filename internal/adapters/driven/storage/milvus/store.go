// Package milvus provides the Milvus-backed vector searcher.
//
// It covers only the vector half of retrieval: deployments that point
// at Milvus keep the SQLite store for lexical search and document
// lookup. The collection is expected to be populated by the ingestion
// collaborator with one entry per document, carrying the tenant ID as
// a scalar field so searches can filter before ranking.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// Field names for the Milvus collection.
const (
	fieldID       = "id"
	fieldTenantID = "tenant_id"
	fieldTitle    = "title"
	fieldContent  = "content"
	fieldMetadata = "metadata"
	fieldVector   = "embedding"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "passages"

// Ensure Store implements the interface.
var _ driven.VectorSearcher = (*Store)(nil)

// Config holds Milvus connection settings.
type Config struct {
	// Address is the Milvus endpoint, host:port.
	Address string

	// Collection is the collection name (default "passages").
	Collection string
}

// Store is a Milvus-backed vector searcher.
type Store struct {
	client     *milvusclient.Client
	collection string
}

// New connects to Milvus and verifies the collection exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: milvus address required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to milvus at %s: %w", cfg.Address, err)
	}

	has, err := client.HasCollection(ctx, milvusclient.NewHasCollectionOption(cfg.Collection))
	if err != nil {
		client.Close(ctx)
		return nil, fmt.Errorf("checking collection %s: %w", cfg.Collection, err)
	}
	if !has {
		client.Close(ctx)
		return nil, fmt.Errorf("%w: milvus collection %s", domain.ErrNotFound, cfg.Collection)
	}

	return &Store{
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// VectorSearch runs a cosine ANN search filtered to one tenant.
// Milvus applies the filter expression before ranking, so results
// never cross tenant boundaries.
func (s *Store) VectorSearch(ctx context.Context, tenantID string, embedding []float32, limit int) ([]domain.Candidate, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	filter := fmt.Sprintf(`%s == "%s"`, fieldTenantID, escapeExpr(tenantID))

	opt := milvusclient.NewSearchOption(s.collection, limit, []entity.Vector{
		entity.FloatVector(embedding),
	}).
		WithANNSField(fieldVector).
		WithFilter(filter).
		WithOutputFields(fieldID, fieldTitle, fieldContent, fieldMetadata)

	resultSets, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	var candidates []domain.Candidate
	for _, rs := range resultSets {
		hits, err := s.parseResultSet(rs, tenantID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, hits...)
	}
	return candidates, nil
}

// parseResultSet converts one Milvus result set into candidates,
// preserving Milvus's best-first ordering.
func (s *Store) parseResultSet(rs milvusclient.ResultSet, tenantID string) ([]domain.Candidate, error) {
	idCol := rs.GetColumn(fieldID)
	titleCol := rs.GetColumn(fieldTitle)
	contentCol := rs.GetColumn(fieldContent)
	metadataCol := rs.GetColumn(fieldMetadata)
	if idCol == nil || contentCol == nil {
		return nil, fmt.Errorf("milvus result missing required fields")
	}

	candidates := make([]domain.Candidate, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := idCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("reading result id: %w", err)
		}
		content, err := contentCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("reading result content: %w", err)
		}

		var title string
		if titleCol != nil {
			title, _ = titleCol.GetAsString(i)
		}

		doc := &domain.Document{
			ID:       id,
			TenantID: tenantID,
			Title:    title,
			Content:  content,
			Metadata: parseMetadata(metadataCol, i),
		}

		candidates = append(candidates, domain.Candidate{
			Document: doc,
			Score:    float64(rs.Scores[i]),
		})
	}
	return candidates, nil
}

// Ping verifies the Milvus connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	return err
}

// Close disconnects from Milvus.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Close(ctx)
}

// parseMetadata decodes the JSON metadata field, tolerating absence.
func parseMetadata(col column.Column, idx int) map[string]any {
	jsonCol, ok := col.(*column.ColumnJSONBytes)
	if !ok {
		return nil
	}
	raw, err := jsonCol.Value(idx)
	if err != nil || len(raw) == 0 {
		return nil
	}

	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil
	}
	return metadata
}

// escapeExpr escapes backslashes and quotes in filter expression
// values. Escaping rather than stripping keeps tenant IDs that differ
// only in those characters distinct.
func escapeExpr(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}
