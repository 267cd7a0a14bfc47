package driving

import (
	"context"

	"github.com/custodia-labs/responsa/internal/core/domain"
)

// AskRequest is a single grounded question against a tenant's corpus.
type AskRequest struct {
	// Question is the user's natural-language question. Must be
	// non-empty after trimming whitespace.
	Question string

	// TenantID scopes retrieval to one corpus. Required.
	TenantID string

	// ConversationID threads this ask into an existing conversation.
	// Empty starts a new conversation.
	ConversationID string
}

// AskService answers questions grounded in a tenant's document corpus.
type AskService interface {
	// AskStream runs the full pipeline (retrieve, fuse, rerank,
	// generate) and streams progress as typed events. The channel is
	// closed after a terminal event (done or error); exactly one
	// terminal event is sent per ask. Cancelling ctx stops the
	// pipeline and closes the channel promptly.
	//
	// Validation failures are returned synchronously; failures after
	// the pipeline starts arrive as an ErrorEvent on the channel.
	AskStream(ctx context.Context, req AskRequest) (<-chan domain.Event, error)

	// Ask runs the same pipeline without streaming and returns the
	// assembled answer.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)
}
