package driven

// Prompt template names understood by the engine. Each names a
// template the PromptStore can resolve; unknown names fall back to
// embedded defaults.
const (
	// PromptGroundedAnswer is the instruction template for grounded
	// answer generation. It must demand citation markers and forbid
	// uncited claims.
	PromptGroundedAnswer = "grounded_answer"

	// PromptSuggestions is the template for generating follow-up
	// question suggestions after an answer completes.
	PromptSuggestions = "suggest_questions"
)

// PromptStore resolves prompt templates by name. Templates are plain
// text with {{placeholder}} markers substituted by the caller.
type PromptStore interface {
	// Load returns the template for the given prompt name, falling
	// back to the embedded default when no customised version exists.
	Load(name string) (string, error)

	// Reload discards any cached templates so the next Load reflects
	// on-disk edits.
	Reload() error
}
