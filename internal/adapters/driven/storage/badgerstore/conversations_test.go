package badgerstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AppendAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		err := store.AppendTurn(ctx, "conv-1", domain.Turn{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
		require.NoError(t, err)
	}

	turns, err := store.History(ctx, "conv-1", 10)
	require.NoError(t, err)

	// Oldest first, like a transcript.
	require.Len(t, turns, 3)
	assert.Equal(t, "question 1", turns[0].Question)
	assert.Equal(t, "question 3", turns[2].Question)
}

func TestStore_HistoryLimitKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		err := store.AppendTurn(ctx, "conv-1", domain.Turn{
			Question: fmt.Sprintf("question %d", i),
		})
		require.NoError(t, err)
	}

	turns, err := store.History(ctx, "conv-1", 2)
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, "question 4", turns[0].Question)
	assert.Equal(t, "question 5", turns[1].Question)
}

func TestStore_ConversationsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "conv-1", domain.Turn{Question: "one"}))
	require.NoError(t, store.AppendTurn(ctx, "conv-2", domain.Turn{Question: "two"}))

	turns, err := store.History(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "one", turns[0].Question)
}

func TestStore_PrefixDoesNotBleed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "conv" is a prefix of "conv-longer"; the separator must keep
	// their histories apart.
	require.NoError(t, store.AppendTurn(ctx, "conv", domain.Turn{Question: "short"}))
	require.NoError(t, store.AppendTurn(ctx, "conv-longer", domain.Turn{Question: "long"}))

	turns, err := store.History(ctx, "conv", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "short", turns[0].Question)
}

func TestStore_UnknownConversationIsEmpty(t *testing.T) {
	store := newTestStore(t)

	turns, err := store.History(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_TurnCitationsSurviveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.AppendTurn(ctx, "conv-1", domain.Turn{
		Question: "q",
		Answer:   "a [1]",
		Citations: []domain.Citation{
			{Index: 1, DocumentID: "d1", Title: "Article 278", Excerpt: "Notice periods..."},
		},
	})
	require.NoError(t, err)

	turns, err := store.History(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Len(t, turns[0].Citations, 1)
	assert.Equal(t, "Article 278", turns[0].Citations[0].Title)
}

func TestStore_RejectsEmptyConversationID(t *testing.T) {
	store := newTestStore(t)

	err := store.AppendTurn(context.Background(), "", domain.Turn{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.History(context.Background(), "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_HistorySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(ctx, "conv-1", domain.Turn{Question: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	turns, err := reopened.History(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "persisted", turns[0].Question)
}
