package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/responsa/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string `json:"question" jsonschema:"the question to answer from the indexed corpus"`
	TenantID       string `json:"tenant_id" jsonschema:"the tenant whose corpus to query"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"optional conversation id to continue an earlier exchange"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string           `json:"answer"`
	Citations      []CitationOutput `json:"citations"`
	Suggestions    []string         `json:"suggestions,omitempty"`
	ConversationID string           `json:"conversation_id"`
	Degraded       bool             `json:"degraded,omitempty"`
}

// CitationOutput represents a numbered source backing the answer.
type CitationOutput struct {
	Index      int    `json:"index"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title,omitempty"`
	Excerpt    string `json:"excerpt"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed corpus with numbered source citations",
	}, s.handleAsk)
}

// handleAsk handles the ask tool invocation. MCP tool calls are
// request/response, so the non-streaming variant is used.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, driving.AskRequest{
		Question:       input.Question,
		TenantID:       input.TenantID,
		ConversationID: input.ConversationID,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:         answer.Text,
		Citations:      make([]CitationOutput, len(answer.Citations)),
		Suggestions:    answer.Suggestions,
		ConversationID: answer.ConversationID,
		Degraded:       answer.Degraded,
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			Index:      c.Index,
			DocumentID: c.DocumentID,
			Title:      c.Title,
			Excerpt:    c.Excerpt,
		}
	}

	return nil, output, nil
}
