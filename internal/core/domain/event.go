package domain

// Event is the closed union of ask-stream event kinds. Exactly one of
// DoneEvent or ErrorEvent terminates a stream; StatusEvents precede the
// first TokenEvent; a CitationsEvent may arrive interleaved with or
// after the last token but always before the terminal event.
//
// The union is closed: transports switch over the concrete types
// exhaustively, so a mistyped event kind cannot silently vanish.
type Event interface {
	// Kind returns the wire name of the event type.
	Kind() string

	isEvent()
}

// StatusEvent reports a lifecycle stage change ("searching", "generating").
type StatusEvent struct {
	// Stage is the pipeline state the ask has entered.
	Stage AskStatus `json:"stage"`

	// Message is a short human-readable stage description.
	Message string `json:"message"`
}

// TokenEvent carries one increment of generated answer text.
type TokenEvent struct {
	// Content is the token text.
	Content string `json:"content"`
}

// CitationsEvent carries the finalised citation list. It is emitted as
// a discrete event, independent of token emission.
type CitationsEvent struct {
	// Citations are the numbered sources, contiguous from index 1.
	Citations []Citation `json:"citations"`
}

// SuggestionsEvent carries follow-up question suggestions.
type SuggestionsEvent struct {
	// Questions are up to a handful of follow-up questions.
	Questions []string `json:"questions"`
}

// DoneEvent terminates a successful stream with the complete answer.
type DoneEvent struct {
	// ConversationID identifies the conversation for follow-ups.
	ConversationID string `json:"conversation_id"`

	// Answer is the complete result: full text, citations, suggestions.
	Answer Answer `json:"answer"`
}

// ErrorEvent terminates a failed stream.
type ErrorEvent struct {
	// Message is a human-readable failure description.
	Message string `json:"message"`
}

// Kind returns "status".
func (StatusEvent) Kind() string { return "status" }

// Kind returns "token".
func (TokenEvent) Kind() string { return "token" }

// Kind returns "citations".
func (CitationsEvent) Kind() string { return "citations" }

// Kind returns "suggested_questions".
func (SuggestionsEvent) Kind() string { return "suggested_questions" }

// Kind returns "done".
func (DoneEvent) Kind() string { return "done" }

// Kind returns "error".
func (ErrorEvent) Kind() string { return "error" }

func (StatusEvent) isEvent()      {}
func (TokenEvent) isEvent()       {}
func (CitationsEvent) isEvent()   {}
func (SuggestionsEvent) isEvent() {}
func (DoneEvent) isEvent()        {}
func (ErrorEvent) isEvent()       {}
