package services

import (
	"sort"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// FuseRankings merges the vector and lexical candidate lists using
// Reciprocal Rank Fusion. Each appearance of a document at rank r
// (1-based) contributes 1/(k+r) to its fused score; documents found by
// both retrievers accumulate both contributions, which is what pushes
// consensus results to the top. k is the damping constant (typically
// 60) that stops a single first-place rank from dominating.
//
// The result is ordered by fused score descending. Ties break by
// vector rank, then lexical rank, then document ID, so the ordering is
// fully deterministic. Input order within each list is trusted as the
// retriever's ranking; scores on the candidates are ignored.
func FuseRankings(vector, lexical []domain.Candidate, k int) []domain.FusedResult {
	if k <= 0 {
		k = domain.DefaultFusionK
	}

	fused := make(map[string]*domain.FusedResult)

	for i := range vector {
		rank := i + 1
		f := lookup(fused, &vector[i])
		f.Score += 1.0 / float64(k+rank)
		f.VectorRank = rank
	}

	for i := range lexical {
		rank := i + 1
		f := lookup(fused, &lexical[i])
		f.Score += 1.0 / float64(k+rank)
		f.LexicalRank = rank
	}

	results := make([]domain.FusedResult, 0, len(fused))
	for _, f := range fused {
		results = append(results, *f)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ar, br := tieRank(a.VectorRank), tieRank(b.VectorRank); ar != br {
			return ar < br
		}
		if ar, br := tieRank(a.LexicalRank), tieRank(b.LexicalRank); ar != br {
			return ar < br
		}
		return a.Document.ID < b.Document.ID
	})

	return results
}

// lookup finds or creates the fused entry for a candidate's document.
func lookup(fused map[string]*domain.FusedResult, c *domain.Candidate) *domain.FusedResult {
	if f, ok := fused[c.Document.ID]; ok {
		return f
	}
	f := &domain.FusedResult{Document: c.Document}
	fused[c.Document.ID] = f
	return f
}

// tieRank treats an absent rank (0) as worse than any present rank.
func tieRank(r int) int {
	if r == 0 {
		return int(^uint(0) >> 1)
	}
	return r
}
