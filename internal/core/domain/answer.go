package domain

// RankedPassage is a document after cross-encoder re-ranking.
// Only the top-N passages sent to generation exist in this form.
type RankedPassage struct {
	// Document is the re-ranked document.
	Document *Document

	// RelevanceScore is the cross-encoder output. Unbounded real;
	// higher is better. When the re-ranker is unavailable the fused
	// RRF score is carried here instead.
	RelevanceScore float64

	// CitationIndex is the 1-based number assigned by the prompt
	// assembler in final order. Zero until assigned.
	CitationIndex int
}

// Citation is a numbered source reference returned with an answer.
// Its lifetime is one response.
type Citation struct {
	// Index is the 1-based citation number matching the [i] markers
	// in the generated answer.
	Index int `json:"index"`

	// DocumentID identifies the cited document.
	DocumentID string `json:"document_id"`

	// Title is the document title, when available.
	Title string `json:"title,omitempty"`

	// Excerpt is a bounded-length slice of the passage content.
	Excerpt string `json:"excerpt"`

	// Metadata carries the document's metadata (article reference,
	// source URL, etc).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Answer is the complete result of a non-streaming ask call.
type Answer struct {
	// ConversationID identifies the conversation this turn belongs to.
	ConversationID string `json:"conversation_id"`

	// Text is the full generated answer including [i] markers.
	Text string `json:"text"`

	// Citations are the numbered sources the answer draws on.
	Citations []Citation `json:"citations"`

	// Suggestions are follow-up questions, when available.
	Suggestions []string `json:"suggestions,omitempty"`

	// Degraded is true when any stage fell back: one retrieval arm
	// failed and the other carried on alone, or re-ranking was
	// unavailable and the fused order was kept.
	Degraded bool `json:"degraded,omitempty"`
}

// Turn is one question/answer exchange persisted by the conversation
// store collaborator.
type Turn struct {
	// Question is the user's question.
	Question string `json:"question"`

	// Answer is the generated answer text.
	Answer string `json:"answer"`

	// Citations are the sources cited in the answer.
	Citations []Citation `json:"citations,omitempty"`
}
