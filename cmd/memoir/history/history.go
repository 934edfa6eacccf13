package historycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoirhq/memoir"
	"github.com/memoirhq/memoir/cmd/memoir/storeflag"
)

const historyLongDesc string = `Inspect and manage stored session histories.

A session's stored turns are the only memory there is. 'history show' prints
what the model will see replayed on the session's next question; 'history
clear' makes the model forget the session completely.

Examples:
  memoir history list --store sqlite
  memoir history show demo --store sqlite
  memoir history clear demo --store sqlite`

const historyShortDesc string = "Inspect and manage stored session histories"

type historyCommander struct {
	storeKind   string
	dbPath      string
	postgresURI string
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.PersistentFlags().StringVar(&cmder.storeKind, "store", storeflag.KindSQLite, "History store: memory, sqlite or postgres")
	cmd.PersistentFlags().StringVar(&cmder.dbPath, "db", "", "Path to the SQLite database")
	cmd.PersistentFlags().StringVar(&cmder.postgresURI, "postgres", "", "PostgreSQL connection URI")

	cmd.AddCommand(
		cmder.newListCmd(),
		cmder.newShowCmd(),
		cmder.newClearCmd(),
	)

	return cmd
}

func (c *historyCommander) open() (memoir.Store, error) {
	cfg := memoir.LoadConfig()
	return storeflag.Resolve(cfg, c.storeKind, c.dbPath, c.postgresURI)
}

func (c *historyCommander) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions with stored history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.list(cmd.Context(), cmd)
		},
	}
}

func (c *historyCommander) list(ctx context.Context, cmd *cobra.Command) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions stored.")
		return nil
	}

	for _, id := range ids {
		turns, err := store.Turns(ctx, id, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  (%d turns, ~%d tokens when replayed)\n",
			id, len(turns), memoir.EstimateTurnTokens(turns))
	}
	return nil
}

func (c *historyCommander) newShowCmd() *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Print the turns that get replayed for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.show(cmd.Context(), cmd, args[0], last)
		},
	}
	cmd.Flags().IntVar(&last, "last", 0, "Show only the most recent N turns (0 = all)")
	return cmd
}

func (c *historyCommander) show(ctx context.Context, cmd *cobra.Command, sessionID string, last int) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := store.Turns(ctx, sessionID, last)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No history for session %s. Its next question starts from nothing.\n", sessionID)
		return nil
	}

	for _, t := range turns {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"), t.Role, t.Content)
	}
	return nil
}

func (c *historyCommander) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session>",
		Short: "Erase a session's stored history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.clear(cmd.Context(), cmd, args[0])
		},
	}
}

func (c *historyCommander) clear(ctx context.Context, cmd *cobra.Command, sessionID string) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx, sessionID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s.\n", sessionID)
	return nil
}
