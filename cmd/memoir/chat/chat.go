package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoirhq/memoir"
	"github.com/memoirhq/memoir/cmd/memoir/render"
	"github.com/memoirhq/memoir/cmd/memoir/storeflag"
)

const chatLongDesc string = `Chat interactively with session memory.

Every reply the model gives is computed from the replayed history plus your
latest message, nothing more. The REPL makes that visible: /history prints
exactly what the model will see on the next turn, /forget erases it, and
/compact folds it into a single summary turn.

With a persistent store, quitting and rerunning with the same --session
continues where the conversation left off.

Commands inside the chat:
  /history   print the stored turns that get replayed
  /compact   replace the history with a summary of itself
  /forget    erase the session's history
  /cost      print accumulated token usage and cost
  /quit      exit`

const chatShortDesc string = "Chat interactively with replayed session memory"

type chatCommander struct {
	session     string
	storeKind   string
	dbPath      string
	postgresURI string
	model       string
	window      int
	plain       bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.session, "session", "s", "", "Session ID to continue (empty starts a new session)")
	cmd.Flags().StringVar(&cmder.storeKind, "store", storeflag.KindSQLite, "History store: memory, sqlite or postgres")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to the SQLite database")
	cmd.Flags().StringVar(&cmder.postgresURI, "postgres", "", "PostgreSQL connection URI")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Chat model to use")
	cmd.Flags().IntVar(&cmder.window, "window", 0, "Replay at most this many stored turns (0 = all)")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print answers without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
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

	systemPrompt, err := memoir.ChatPrompt(memoir.ChatPromptData{Instructions: memoir.DefaultSystemPrompt})
	if err != nil {
		return err
	}

	llm := memoir.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	conversation := memoir.NewConversation(llm, store,
		memoir.WithModel(model),
		memoir.WithWindow(c.window),
		memoir.WithSystemPrompt(systemPrompt),
	)

	session := memoir.NewSession(ctx, conversation, c.session)
	defer session.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (model %s, store %s). /quit to exit\n", session.ID(), model, c.storeKind)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := c.command(ctx, cmd, conversation, session.ID(), line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if done {
				return nil
			}
			continue
		}

		if err := session.In(line); err != nil {
			return err
		}
		if err := c.pump(cmd, session); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// pump drains one answer from the session: partial text as it arrives, then
// the end marker.
func (c *chatCommander) pump(cmd *cobra.Command, session *memoir.Session) error {
	out := cmd.OutOrStdout()
	for {
		response := session.Out()
		switch response.Type {
		case memoir.ResponseTypePartialText:
			fmt.Fprint(out, response.Content)
		case memoir.ResponseTypeError:
			fmt.Fprintln(out)
			if strings.Contains(response.Content, "context window exceeded") {
				return fmt.Errorf("%s\nthe history no longer fits the context window; /compact folds it into a summary", response.Content)
			}
			return fmt.Errorf("%s", response.Content)
		case memoir.ResponseTypeEnd:
			fmt.Fprintln(out)
			return nil
		default:
			return nil
		}
	}
}

func (c *chatCommander) command(ctx context.Context, cmd *cobra.Command, conversation *memoir.Conversation, sessionID string, line string) (bool, error) {
	out := cmd.OutOrStdout()
	switch line {
	case "/quit", "/exit":
		return true, nil

	case "/history":
		turns, err := conversation.History(ctx, sessionID)
		if err != nil {
			return false, err
		}
		if len(turns) == 0 {
			fmt.Fprintln(out, "(no stored history; the model starts from nothing)")
			return false, nil
		}
		for _, t := range turns {
			fmt.Fprintf(out, "%s: %s\n", t.Role, t.Content)
		}
		return false, nil

	case "/forget":
		if err := conversation.Forget(ctx, sessionID); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "history erased; the next question starts from nothing")
		return false, nil

	case "/compact":
		summary, err := conversation.Compact(ctx, sessionID)
		if err != nil {
			return false, err
		}
		return false, render.Markdown(out, "History compacted to:\n\n"+summary, c.plain)

	case "/cost":
		usage := conversation.Usage()
		if details, ok := conversation.Cost(); ok {
			fmt.Fprintf(out, "%d input + %d output tokens, $%.6f\n", details.InputTokens, details.OutputTokens, details.TotalCost)
		} else {
			fmt.Fprintf(out, "%d input + %d output tokens, no pricing for model\n", usage.InputTokens, usage.OutputTokens)
		}
		return false, nil

	default:
		fmt.Fprintf(out, "unknown command %s (try /history, /compact, /forget, /cost, /quit)\n", line)
		return false, nil
	}
}
