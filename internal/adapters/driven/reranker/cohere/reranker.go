// Package cohere provides a cross-encoder re-ranking adapter using the
// Cohere Rerank API. Any endpoint speaking the same wire format (for
// example a self-hosted reranker behind a compatible shim) works by
// overriding the base URL.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// Ensure RerankService implements the interface.
var _ driven.RerankService = (*RerankService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "rerank-v3.5"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Cohere re-ranking service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com).
	BaseURL string

	// Model is the re-ranking model to use (default: rerank-v3.5).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// RerankService scores passages using the Cohere Rerank API.
type RerankService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the Cohere /v1/rerank request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the Cohere /v1/rerank response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Message string `json:"message,omitempty"`
}

// NewRerankService creates a new Cohere re-ranking service.
func NewRerankService(cfg Config) (*RerankService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RerankService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Score returns the relevance of a single passage to the query.
func (s *RerankService) Score(ctx context.Context, query, passage string) (float64, error) {
	scores, err := s.ScoreBatch(ctx, query, []string{passage})
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, fmt.Errorf("cohere: no score returned")
	}
	return scores[0], nil
}

// ScoreBatch scores multiple passages against one query in a single
// API call. The result is index-aligned with the input.
func (s *RerankService) ScoreBatch(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: passages,
		TopN:      len(passages),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if rerankResp.Message != "" {
			return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, rerankResp.Message)
		}
		return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, string(body))
	}

	// Cohere returns results best-first; re-align to input order.
	scores := make([]float64, len(passages))
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(scores) {
			return nil, fmt.Errorf("cohere: result index %d out of range", result.Index)
		}
		scores[result.Index] = result.RelevanceScore
	}
	return scores, nil
}

// ModelName returns the name of the re-ranking model being used.
func (s *RerankService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
func (s *RerankService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("cohere: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cohere: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("cohere: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("cohere: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *RerankService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
