package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// makeCandidates builds an ordered candidate list from document IDs.
func makeCandidates(ids ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(ids))
	for i, id := range ids {
		out[i] = domain.Candidate{
			Document: &domain.Document{ID: id, Title: "Doc " + id},
		}
	}
	return out
}

func fusedIDs(results []domain.FusedResult) []string {
	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].Document.ID
	}
	return ids
}

func TestFuseRankings_ConsensusWins(t *testing.T) {
	// "c" is mid-ranked in both lists; each other doc appears once at
	// the top of one list. Two mid contributions beat one top
	// contribution: 1/62+1/62 > 1/61.
	vector := makeCandidates("a", "c")
	lexical := makeCandidates("b", "c")

	results := FuseRankings(vector, lexical, 60)

	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].Document.ID)
	assert.InDelta(t, 1.0/62+1.0/62, results[0].Score, 1e-12)
	assert.InDelta(t, 1.0/61, results[1].Score, 1e-12)
}

func TestFuseRankings_SumProperty(t *testing.T) {
	vector := makeCandidates("a", "b", "c")
	lexical := makeCandidates("c", "d", "a")

	results := FuseRankings(vector, lexical, 60)

	byID := make(map[string]domain.FusedResult)
	for _, r := range results {
		byID[r.Document.ID] = r
	}

	// a: vector rank 1, lexical rank 3.
	assert.InDelta(t, 1.0/61+1.0/63, byID["a"].Score, 1e-12)
	// b: vector rank 2 only.
	assert.InDelta(t, 1.0/62, byID["b"].Score, 1e-12)
	// c: vector rank 3, lexical rank 1.
	assert.InDelta(t, 1.0/63+1.0/61, byID["c"].Score, 1e-12)
	// d: lexical rank 2 only.
	assert.InDelta(t, 1.0/62, byID["d"].Score, 1e-12)
}

func TestFuseRankings_Commutative(t *testing.T) {
	// Score totals must not depend on which list is which; only the
	// vector-first tie-break can differ, so use lists with no ties.
	vector := makeCandidates("a", "b", "c", "d")
	lexical := makeCandidates("c", "a", "e")

	forward := FuseRankings(vector, lexical, 60)
	reversed := FuseRankings(lexical, vector, 60)

	fwd := make(map[string]float64)
	for _, r := range forward {
		fwd[r.Document.ID] = r.Score
	}
	for _, r := range reversed {
		assert.InDelta(t, fwd[r.Document.ID], r.Score, 1e-12)
	}
}

func TestFuseRankings_DeduplicatesAcrossSources(t *testing.T) {
	vector := makeCandidates("a", "b")
	lexical := makeCandidates("b", "a")

	results := FuseRankings(vector, lexical, 60)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t,
			[]domain.RetrievalSource{domain.SourceVector, domain.SourceLexical},
			r.Sources())
	}
}

func TestFuseRankings_SingleSourcePreservesOrder(t *testing.T) {
	// With one empty list, fused order must equal the surviving
	// retriever's order regardless of k.
	vector := makeCandidates("a", "b", "c", "d", "e")

	for _, k := range []int{1, 10, 60, 1000} {
		results := FuseRankings(vector, nil, k)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, fusedIDs(results),
			fmt.Sprintf("k=%d", k))
	}
}

func TestFuseRankings_LargerKCompressesSpreadWithoutReordering(t *testing.T) {
	// Both lists populated, vector strictly dominant: lexical agrees on
	// the shared prefix and adds nothing above it. Growing k flattens
	// the score spread but must leave the ranked sequence untouched.
	vector := makeCandidates("a", "b", "c", "d")
	lexical := makeCandidates("a", "b")

	narrow := FuseRankings(vector, lexical, 60)
	wide := FuseRankings(vector, lexical, 120)

	assert.Equal(t, []string{"a", "b", "c", "d"}, fusedIDs(narrow))
	assert.Equal(t, fusedIDs(narrow), fusedIDs(wide))

	assert.Less(t, scoreSpread(wide), scoreSpread(narrow))
}

func scoreSpread(results []domain.FusedResult) float64 {
	lowest, highest := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < lowest {
			lowest = r.Score
		}
		if r.Score > highest {
			highest = r.Score
		}
	}
	return highest - lowest
}

func TestFuseRankings_TieBreakByVectorThenLexicalRank(t *testing.T) {
	// "a" and "b" have identical fused scores: each is rank 1 in one
	// list and rank 2 in the other. The vector-rank tie-break puts
	// "a" (vector rank 1) first.
	vector := makeCandidates("a", "b")
	lexical := makeCandidates("b", "a")

	results := FuseRankings(vector, lexical, 60)

	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-12)
	assert.Equal(t, []string{"a", "b"}, fusedIDs(results))
}

func TestFuseRankings_TieBreakByDocumentID(t *testing.T) {
	// Same rank in the same single list position is impossible, so
	// construct a full tie with symmetric ranks across two docs that
	// also share vector rank absence.
	vector := []domain.Candidate{}
	lexical := makeCandidates("z", "y")

	// No score ties here; verify pure lexical pass-through first.
	results := FuseRankings(vector, lexical, 60)
	require.Equal(t, []string{"z", "y"}, fusedIDs(results))

	// Two docs appearing only at the same lexical rank cannot happen,
	// but equal fused scores from disjoint single-source hits can:
	// vector rank 1 vs lexical rank 1. Vector-rank tie-break decides.
	results = FuseRankings(makeCandidates("m"), makeCandidates("n"), 60)
	require.Len(t, results, 2)
	assert.Equal(t, "m", results[0].Document.ID)
}

func TestFuseRankings_EmptyInputs(t *testing.T) {
	assert.Empty(t, FuseRankings(nil, nil, 60))
	assert.Empty(t, FuseRankings([]domain.Candidate{}, []domain.Candidate{}, 60))
}

func TestFuseRankings_RanksRecorded(t *testing.T) {
	vector := makeCandidates("a", "b")
	lexical := makeCandidates("b")

	results := FuseRankings(vector, lexical, 60)

	byID := make(map[string]domain.FusedResult)
	for _, r := range results {
		byID[r.Document.ID] = r
	}

	assert.Equal(t, 1, byID["a"].VectorRank)
	assert.Equal(t, 0, byID["a"].LexicalRank)
	assert.Equal(t, 2, byID["b"].VectorRank)
	assert.Equal(t, 1, byID["b"].LexicalRank)
}

func TestFuseRankings_DefaultKWhenInvalid(t *testing.T) {
	vector := makeCandidates("a")

	results := FuseRankings(vector, nil, 0)

	require.Len(t, results, 1)
	assert.InDelta(t, 1.0/float64(domain.DefaultFusionK+1), results[0].Score, 1e-12)
}
