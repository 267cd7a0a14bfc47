package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driving"
)

var (
	askTenant       string
	askConversation string
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed corpus",
	Long: `Answers a question using hybrid retrieval and grounded generation.
The answer streams to stdout as it is generated; citations and
suggested follow-up questions are printed once it completes.

Pass --conversation to continue an earlier exchange; without it a new
conversation is started and its id printed with the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTenant, "tenant", "t", "", "tenant whose corpus to query (required)")
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "conversation id for follow-up context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the complete answer as JSON")
	_ = askCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	req := driving.AskRequest{
		Question:       args[0],
		TenantID:       askTenant,
		ConversationID: askConversation,
	}

	if askJSON {
		answer, err := askService.Ask(cmd.Context(), req)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	events, err := askService.AskStream(cmd.Context(), req)
	if err != nil {
		return err
	}

	return renderStream(cmd, events)
}

// renderStream prints the event stream: tokens as they arrive, then
// citations, suggestions and the conversation id. The switch covers
// every event kind; the union is closed.
func renderStream(cmd *cobra.Command, events <-chan domain.Event) error {
	tokensStarted := false

	for event := range events {
		switch e := event.(type) {
		case domain.StatusEvent:
			cmd.PrintErrf("... %s\n", e.Message)

		case domain.TokenEvent:
			tokensStarted = true
			cmd.Print(e.Content)

		case domain.CitationsEvent:
			if tokensStarted {
				cmd.Println()
			}
			printCitations(cmd, e.Citations)

		case domain.SuggestionsEvent:
			printSuggestions(cmd, e.Questions)

		case domain.DoneEvent:
			cmd.Println()
			if e.Answer.Degraded {
				cmd.PrintErrln("Note: re-ranking was unavailable; results use fused retrieval order.")
			}
			cmd.Printf("Conversation: %s\n", e.ConversationID)
			return nil

		case domain.ErrorEvent:
			return fmt.Errorf("%s", e.Message)
		}
	}

	// Channel closed without a terminal event: the context was
	// cancelled mid-stream.
	return cmd.Context().Err()
}

func printCitations(cmd *cobra.Command, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, c := range citations {
		title := c.Title
		if title == "" {
			title = c.DocumentID
		}
		cmd.Printf("  [%d] %s\n", c.Index, title)
		if c.Excerpt != "" {
			cmd.Printf("      %s\n", c.Excerpt)
		}
	}
}

func printSuggestions(cmd *cobra.Command, questions []string) {
	if len(questions) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("You could ask next:")
	for _, q := range questions {
		cmd.Printf("  - %s\n", q)
	}
}
