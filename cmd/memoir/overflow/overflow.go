package overflowcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoirhq/memoir"
)

const overflowLongDesc string = `Demonstrate what happens when replayed history outgrows the model.

Replaying the full history into every prompt cannot go on forever: the model
has a finite context window, and a long enough session will not fit. This
command fabricates a session with an oversized history, asks a question with
all of it replayed, and shows the API rejecting the request. With --fit the
history is first trimmed to a token budget, and the same question succeeds.

Examples:
  memoir overflow
  memoir overflow --tokens 400000
  memoir overflow --fit --budget 4000`

const overflowShortDesc string = "Show a context-window overflow and how trimming recovers from it"

const overflowQuestion = "In one short sentence, what have we been talking about?"

type overflowCommander struct {
	model  string
	tokens int
	fit    bool
	budget int
}

func NewOverflowCmd() *cobra.Command {
	cmder := &overflowCommander{}

	cmd := &cobra.Command{
		Use:   "overflow",
		Short: overflowShortDesc,
		Long:  overflowLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Chat model to use")
	cmd.Flags().IntVar(&cmder.tokens, "tokens", 300000, "Approximate size of the fabricated history in tokens")
	cmd.Flags().BoolVar(&cmder.fit, "fit", false, "Also retry with the history trimmed to --budget tokens")
	cmd.Flags().IntVar(&cmder.budget, "budget", 4000, "Token budget for the trimmed retry")

	return cmd
}

func (c *overflowCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg := memoir.LoadConfig()
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	model := cfg.Model
	if c.model != "" {
		model = c.model
	}

	out := cmd.OutOrStdout()
	sessionID := memoir.NewSessionID()
	filler := fabricateHistory(sessionID, c.tokens)
	fmt.Fprintf(out, "Fabricated %d turns (~%d tokens) for session %s.\n",
		len(filler), memoir.EstimateTurnTokens(filler), sessionID)

	store := memoir.NewMemoryStore()
	defer store.Close()
	if err := store.Append(ctx, sessionID, filler...); err != nil {
		return err
	}

	llm := memoir.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	conversation := memoir.NewConversation(llm, store, memoir.WithModel(model))

	fmt.Fprintf(out, "\nAsking %q with the full history replayed...\n", overflowQuestion)
	answer, err := conversation.Ask(ctx, sessionID, overflowQuestion)
	switch {
	case err == nil:
		// A model with a big enough window swallows the history whole.
		fmt.Fprintf(out, "The request fit after all. Answer: %s\n", answer)
		fmt.Fprintln(out, "Increase --tokens to push past this model's context window.")
	case memoir.IsContextWindowExceeded(err):
		fmt.Fprintf(out, "Rejected, as expected: %v\n", err)
		fmt.Fprintln(out, "The model never saw the question: the replayed history alone overflowed the window.")
	default:
		return err
	}

	if !c.fit {
		return nil
	}

	trimmed := memoir.FitTurns(filler, c.budget)
	fmt.Fprintf(out, "\nRetrying with the history trimmed to ~%d tokens (%d of %d turns kept)...\n",
		memoir.EstimateTurnTokens(trimmed), len(trimmed), len(filler))

	if err := store.Clear(ctx, sessionID); err != nil {
		return err
	}
	if err := store.Append(ctx, sessionID, trimmed...); err != nil {
		return err
	}

	answer, err = conversation.Ask(ctx, sessionID, overflowQuestion)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Answer: %s\n", answer)
	fmt.Fprintln(out, "Same session, same question; only the replayed slice changed.")
	return nil
}

// fabricateHistory builds alternating user/assistant turns until the
// estimated token count reaches the target.
func fabricateHistory(sessionID string, targetTokens int) []memoir.Turn {
	topics := []string{
		"the harbor ferry schedule",
		"repotting the balcony tomatoes",
		"the missing library book",
		"tuning the bicycle gears",
		"the neighbor's accordion practice",
	}

	var turns []memoir.Turn
	total := 0
	for i := 0; total < targetTokens; i++ {
		topic := topics[i%len(topics)]
		question := fmt.Sprintf("Note %d about %s: please keep this in mind, it may matter later in our conversation.", i+1, topic)
		reply := fmt.Sprintf("Noted, I have recorded item %d about %s and will keep it available for the rest of our conversation.", i+1, topic)

		u := memoir.NewTurn(sessionID, memoir.RoleUser, question)
		a := memoir.NewTurn(sessionID, memoir.RoleAssistant, reply)
		turns = append(turns, u, a)
		total += memoir.EstimateTokens(question) + memoir.EstimateTokens(reply)
	}
	return turns
}
