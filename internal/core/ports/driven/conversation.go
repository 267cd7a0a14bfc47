package driven

import (
	"context"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// ConversationStore persists question/answer turns keyed by
// conversation ID. This is an optional service: without it every ask
// stands alone and follow-up questions lose their context.
type ConversationStore interface {
	// AppendTurn records a completed turn at the end of the
	// conversation. Turn order is insertion order.
	AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error

	// History returns up to limit most recent turns, oldest first, so
	// the slice reads top to bottom like a transcript. An unknown
	// conversation yields an empty slice, not an error.
	History(ctx context.Context, conversationID string, limit int) ([]domain.Turn, error)

	// Close releases resources.
	Close() error
}
