package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/logger"
)

// rerankPoolSize bounds concurrent cross-encoder calls per process.
const rerankPoolSize = 8

// rerankBatchSize caps passages per cross-encoder request. The fused
// list is scored in batches, one request per batch, concurrently on
// the worker pool.
const rerankBatchSize = 32

// Ranker runs the second stage of the pipeline: cross-encoder scoring
// of the fused candidates, keeping the top N for generation.
//
// Re-ranking is strictly optional. A nil re-ranker, a scoring error or
// a stage timeout all produce the same outcome: the fused order is
// kept, carrying RRF scores, and the result is flagged degraded. The
// stage fails closed; it never fails the ask.
type Ranker struct {
	reranker driven.RerankService
	pool     *ants.Pool
	settings domain.RetrievalSettings
}

// NewRanker creates a ranker. reranker may be nil.
func NewRanker(reranker driven.RerankService, settings domain.RetrievalSettings) (*Ranker, error) {
	settings.ApplyDefaults()

	pool, err := ants.NewPool(rerankPoolSize)
	if err != nil {
		return nil, err
	}

	return &Ranker{
		reranker: reranker,
		pool:     pool,
		settings: settings,
	}, nil
}

// Rank scores the fused candidates against the query and returns the
// top N passages, best first. The boolean reports degradation: true
// means the fused order was used because re-ranking was unavailable.
func (r *Ranker) Rank(ctx context.Context, query string, fused []domain.FusedResult) ([]domain.RankedPassage, bool) {
	if len(fused) == 0 {
		return nil, false
	}

	if r.reranker == nil {
		logger.Debug("Re-ranker not configured, using fused order")
		return r.fallback(fused), true
	}

	logger.Section("Re-ranking")
	logger.Debug("Scoring %d candidates with %s", len(fused), r.reranker.ModelName())

	scored, err := r.scoreAll(ctx, query, fused)
	if err != nil {
		logger.Warn("Re-ranking failed, falling back to fused order: %v", err)
		return r.fallback(fused), true
	}

	// Stable sort keeps fused order among equal cross-encoder scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return truncate(scored, r.settings.RerankTopN), false
}

// scoreAll scores the candidates in batches on the worker pool,
// bounded by the stage timeout. Any single failure fails the stage.
func (r *Ranker) scoreAll(ctx context.Context, query string, fused []domain.FusedResult) ([]domain.RankedPassage, error) {
	sctx, cancel := context.WithTimeout(ctx, r.settings.RerankTimeout)
	defer cancel()

	scored := make([]domain.RankedPassage, len(fused))

	batches := (len(fused) + rerankBatchSize - 1) / rerankBatchSize
	errs := make([]error, batches)

	var wg sync.WaitGroup
	for b := 0; b < batches; b++ {
		b := b
		start := b * rerankBatchSize
		end := start + rerankBatchSize
		if end > len(fused) {
			end = len(fused)
		}

		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()

			passages := make([]string, end-start)
			for i := start; i < end; i++ {
				passages[i-start] = fused[i].Document.Content
			}

			scores, err := r.reranker.ScoreBatch(sctx, query, passages)
			if err != nil {
				errs[b] = err
				return
			}
			if len(scores) != len(passages) {
				errs[b] = fmt.Errorf("reranker returned %d scores for %d passages", len(scores), len(passages))
				return
			}

			for i := start; i < end; i++ {
				scored[i] = domain.RankedPassage{
					Document:       fused[i].Document,
					RelevanceScore: scores[i-start],
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[b] = submitErr
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scored, nil
}

// fallback maps the fused order directly to passages, carrying the
// RRF score as the relevance score.
func (r *Ranker) fallback(fused []domain.FusedResult) []domain.RankedPassage {
	passages := make([]domain.RankedPassage, len(fused))
	for i := range fused {
		passages[i] = domain.RankedPassage{
			Document:       fused[i].Document,
			RelevanceScore: fused[i].Score,
		}
	}
	return truncate(passages, r.settings.RerankTopN)
}

// Close releases the worker pool.
func (r *Ranker) Close() {
	r.pool.Release()
}

func truncate(passages []domain.RankedPassage, n int) []domain.RankedPassage {
	if n > 0 && len(passages) > n {
		return passages[:n]
	}
	return passages
}
