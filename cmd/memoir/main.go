package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	askcmder "github.com/memoirhq/memoir/cmd/memoir/ask"
	chatcmder "github.com/memoirhq/memoir/cmd/memoir/chat"
	historycmder "github.com/memoirhq/memoir/cmd/memoir/history"
	overflowcmder "github.com/memoirhq/memoir/cmd/memoir/overflow"
)

const rootLongDesc string = `memoir: conversational memory for stateless chat models.

A chat model computes every reply from the prompt alone; it remembers nothing
between requests. memoir stores each session's turns and replays them into
the next prompt, which is all "memory" ever is. The subcommands walk through
the consequences: ask shows statelessness and replayed recall, chat keeps a
session going across runs, history exposes exactly what gets replayed, and
overflow shows what happens when the replayed history outgrows the model's
context window.

Configuration comes from the environment (or a .env file): OPENAI_API_KEY,
OPENAI_BASE_URL, MEMOIR_MODEL, MEMOIR_DB_PATH, POSTGRES_URI, and for
--search: SEARCH_ENDPOINT, SEARCH_INDEX, SEARCH_API_KEY.`

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "memoir",
		Short:        "Conversational memory for stateless chat models",
		Long:         rootLongDesc,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each request's session and token counts to stderr")

	rootCmd.AddCommand(
		askcmder.NewAskCmd(),
		chatcmder.NewChatCmd(),
		historycmder.NewHistoryCmd(),
		overflowcmder.NewOverflowCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
