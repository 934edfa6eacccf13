package askcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoirhq/memoir"
	"github.com/memoirhq/memoir/cmd/memoir/render"
	"github.com/memoirhq/memoir/cmd/memoir/storeflag"
)

const askLongDesc string = `Ask a single question.

Each invocation is a fresh request: the model receives the prompt and nothing
else, because chat models are stateless. Without --session that is the whole
story, and the model cannot recall anything said before. With --session and a
persistent store, the stored turns of that session are replayed into the
prompt first, and the model appears to remember.

Examples:
  memoir ask "My name is Ada and I work on compilers."
  memoir ask "What is my name?"                          # forgets: nothing was replayed
  memoir ask -s demo --store sqlite "My name is Ada."
  memoir ask -s demo --store sqlite "What is my name?"   # recalls from the database`

const askShortDesc string = "Ask a one-shot question, optionally with session memory"

type askCommander struct {
	session     string
	user        string
	storeKind   string
	dbPath      string
	postgresURI string
	model       string
	window      int
	maxTokens   int64
	stream      bool
	search      bool
	top         int
	plain       bool
	showCost    bool
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.session, "session", "s", "", "Session ID whose history is replayed (empty mints a throwaway one)")
	cmd.Flags().StringVar(&cmder.user, "user", "", "User ID to tag requests with")
	cmd.Flags().StringVar(&cmder.storeKind, "store", storeflag.KindMemory, "History store: memory, sqlite or postgres")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to the SQLite database")
	cmd.Flags().StringVar(&cmder.postgresURI, "postgres", "", "PostgreSQL connection URI")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Chat model to use")
	cmd.Flags().IntVar(&cmder.window, "window", 0, "Replay at most this many stored turns (0 = all)")
	cmd.Flags().Int64Var(&cmder.maxTokens, "max-tokens", 0, "Cap the completion length (0 = provider default)")
	cmd.Flags().BoolVar(&cmder.stream, "stream", false, "Stream the answer as it is generated")
	cmd.Flags().BoolVar(&cmder.search, "search", false, "Ground the answer in documents from the search index")
	cmd.Flags().IntVar(&cmder.top, "top", 3, "Number of documents to retrieve with --search")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the answer without markdown rendering")
	cmd.Flags().BoolVar(&cmder.showCost, "cost", false, "Print token usage and cost after the answer")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, question string) error {
	cfg := memoir.LoadConfig()
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	model := cfg.Model
	if c.model != "" {
		model = c.model
	}

	store, err := storeflag.Resolve(cfg, c.storeKind, c.dbPath, c.postgresURI)
	if err != nil {
		return err
	}
	defer store.Close()

	llm := memoir.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	conversation := memoir.NewConversation(llm, store,
		memoir.WithModel(model),
		memoir.WithWindow(c.window),
		memoir.WithMaxTokens(c.maxTokens),
	)

	sessionID := c.session
	if sessionID == "" {
		sessionID = memoir.NewSessionID()
	}
	if c.user != "" {
		ctx = memoir.WithUserID(ctx, c.user)
	}

	switch {
	case c.search:
		return c.askGrounded(ctx, cmd, cfg, conversation, sessionID, question)
	case c.stream:
		return c.askStreaming(ctx, cmd, conversation, sessionID, question)
	default:
		answer, err := conversation.Ask(ctx, sessionID, question)
		if err != nil {
			return describeOverflow(err)
		}
		if err := render.Markdown(cmd.OutOrStdout(), answer, c.plain); err != nil {
			return err
		}
		c.printCost(cmd, conversation)
		return nil
	}
}

func (c *askCommander) askGrounded(ctx context.Context, cmd *cobra.Command, cfg *memoir.Config, conversation *memoir.Conversation, sessionID string, question string) error {
	if cfg.SearchEndpoint == "" || cfg.SearchIndex == "" {
		return fmt.Errorf("--search needs SEARCH_ENDPOINT and SEARCH_INDEX")
	}

	retriever := memoir.NewSearchClient(cfg.SearchEndpoint, cfg.SearchIndex, cfg.SearchAPIKey)
	answer, err := conversation.AskGrounded(ctx, sessionID, question, retriever, c.top)
	if err != nil {
		return describeOverflow(err)
	}
	if err := render.Markdown(cmd.OutOrStdout(), answer, c.plain); err != nil {
		return err
	}
	c.printCost(cmd, conversation)
	return nil
}

func (c *askCommander) askStreaming(ctx context.Context, cmd *cobra.Command, conversation *memoir.Conversation, sessionID string, question string) error {
	stream, err := conversation.AskStream(ctx, sessionID, question)
	if err != nil {
		return describeOverflow(err)
	}

	for response := range stream {
		switch response.Type {
		case memoir.ResponseTypePartialText:
			fmt.Fprint(cmd.OutOrStdout(), response.Content)
		case memoir.ResponseTypeError:
			fmt.Fprintln(cmd.OutOrStdout())
			return fmt.Errorf("%s", response.Content)
		case memoir.ResponseTypeEnd:
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	c.printCost(cmd, conversation)
	return nil
}

func (c *askCommander) printCost(cmd *cobra.Command, conversation *memoir.Conversation) {
	if !c.showCost {
		return
	}
	usage := conversation.Usage()
	if details, ok := conversation.Cost(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "\n[%d input + %d output tokens, $%.6f]\n",
			details.InputTokens, details.OutputTokens, details.TotalCost)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n[%d input + %d output tokens, no pricing for model]\n",
		usage.InputTokens, usage.OutputTokens)
}

// describeOverflow keeps context-window failures readable; everything else
// passes through untouched.
func describeOverflow(err error) error {
	if memoir.IsContextWindowExceeded(err) {
		return fmt.Errorf("the replayed history no longer fits the model's context window; retry with --window or compact the session: %w", err)
	}
	return err
}
