package domain

// AskStatus is the lifecycle state of one ask call.
// The orchestrator owns the state machine; no state survives across calls.
type AskStatus string

// Ask lifecycle states. Non-terminal states are reported on the event
// stream as they are entered; the terminal pair rides on the done and
// error events instead.
const (
	// AskStatusRetrieving covers embedding plus the two concurrent
	// retrieval calls.
	AskStatusRetrieving AskStatus = "retrieving"

	// AskStatusFusing is the pure rank-fusion computation.
	AskStatusFusing AskStatus = "fusing"

	// AskStatusReranking is the cross-encoder scoring stage.
	AskStatusReranking AskStatus = "reranking"

	// AskStatusGenerating is token streaming from the language model.
	AskStatusGenerating AskStatus = "generating"

	// AskStatusDone is the successful terminal state.
	AskStatusDone AskStatus = "done"

	// AskStatusFailed is the terminal failure state, reachable from
	// any non-terminal state.
	AskStatusFailed AskStatus = "failed"
)

// Terminal returns true for states no transition leaves.
func (s AskStatus) Terminal() bool {
	return s == AskStatusDone || s == AskStatusFailed
}

// AskSession tracks one in-flight ask call. It is owned exclusively by
// the orchestrator for the duration of the call and is not persisted.
type AskSession struct {
	// ConversationID identifies the conversation, minted if absent.
	ConversationID string

	// TenantID scopes retrieval.
	TenantID string

	// Question is the user's question.
	Question string

	// AnswerText accumulates streamed tokens.
	AnswerText string

	// Status is the current lifecycle state.
	Status AskStatus
}
