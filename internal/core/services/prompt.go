package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
	"github.com/custodia-labs/responsa/internal/logger"
)

// defaultGroundedPrompt is the built-in instruction template, used
// when no prompt store is configured or the named template is missing.
// Placeholders: {{context}}, {{history}}, {{question}}.
const defaultGroundedPrompt = `You are a careful assistant that answers questions using ONLY the numbered source passages below.

Rules:
- Base every claim on the passages. Mark each claim with its source number, like [1] or [2].
- If the passages do not contain the answer, say so plainly. Do not guess and do not use outside knowledge.
- Answer in the language of the question.

Source passages:
{{context}}

{{history}}Question: {{question}}

Answer:`

// defaultSuggestionsPrompt asks for follow-up questions after an
// answer completes. Placeholders: {{question}}, {{answer}}.
const defaultSuggestionsPrompt = `Given this question and answer, suggest up to 3 short follow-up questions the user might ask next. Return one question per line, no numbering, no other text.

Question: {{question}}

Answer: {{answer}}`

// Assembler builds citation-grounded prompts from ranked passages.
type Assembler struct {
	prompts  driven.PromptStore
	settings domain.RetrievalSettings
}

// NewAssembler creates an assembler. prompts may be nil, in which case
// the built-in templates are used.
func NewAssembler(prompts driven.PromptStore, settings domain.RetrievalSettings) *Assembler {
	settings.ApplyDefaults()
	return &Assembler{prompts: prompts, settings: settings}
}

// Assembly is an assembled generation request: the final prompt, the
// passages with citation indices assigned, and the matching citation
// list ready for emission.
type Assembly struct {
	Prompt    string
	Passages  []domain.RankedPassage
	Citations []domain.Citation
}

// Assemble numbers the passages 1..N in rank order, renders them into
// the grounded-answer template together with bounded conversation
// history, and derives the citation list. Citation indices are always
// contiguous from 1 regardless of upstream filtering.
func (a *Assembler) Assemble(question string, passages []domain.RankedPassage, history []domain.Turn) *Assembly {
	var context strings.Builder
	citations := make([]domain.Citation, 0, len(passages))

	for i := range passages {
		idx := i + 1
		passages[i].CitationIndex = idx

		doc := passages[i].Document
		if doc.Title != "" {
			fmt.Fprintf(&context, "[%d] %s\n%s\n\n", idx, doc.Title, doc.Content)
		} else {
			fmt.Fprintf(&context, "[%d] %s\n\n", idx, doc.Content)
		}

		citations = append(citations, domain.Citation{
			Index:      idx,
			DocumentID: doc.ID,
			Title:      doc.Title,
			Excerpt:    excerpt(doc.Content, a.settings.ExcerptLength),
			Metadata:   doc.Metadata,
		})
	}

	template := a.loadTemplate(driven.PromptGroundedAnswer, defaultGroundedPrompt)

	prompt := strings.ReplaceAll(template, "{{context}}", strings.TrimRight(context.String(), "\n"))
	prompt = strings.ReplaceAll(prompt, "{{history}}", a.renderHistory(history))
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)

	return &Assembly{
		Prompt:    prompt,
		Passages:  passages,
		Citations: citations,
	}
}

// SuggestionsPrompt renders the follow-up suggestions template.
func (a *Assembler) SuggestionsPrompt(question, answer string) string {
	template := a.loadTemplate(driven.PromptSuggestions, defaultSuggestionsPrompt)
	prompt := strings.ReplaceAll(template, "{{question}}", question)
	return strings.ReplaceAll(prompt, "{{answer}}", answer)
}

// loadTemplate resolves a template by name, falling back to the
// built-in default when the store is absent or fails.
func (a *Assembler) loadTemplate(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	template, err := a.prompts.Load(name)
	if err != nil || strings.TrimSpace(template) == "" {
		if err != nil {
			logger.Warn("Prompt %q unavailable, using built-in default: %v", name, err)
		}
		return fallback
	}
	return template
}

// renderHistory formats the most recent turns as a transcript block.
// The turn count is bounded upstream; this renders what it is given.
func (a *Assembler) renderHistory(history []domain.Turn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
	}
	b.WriteString("\n")
	return b.String()
}

// excerpt bounds content to maxRunes runes, appending an ellipsis when
// truncated. Truncation is rune-safe.
func excerpt(content string, maxRunes int) string {
	if maxRunes <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}
