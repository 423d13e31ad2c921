package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/thoughtstream/internal/cli"
	"github.com/example/thoughtstream/internal/db"
	"github.com/example/thoughtstream/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "thoughtstream",
		Short:   "thoughtstream - a conversational notebook with chat commands",
		Version: version.String(),
		Long: `thoughtstream is a conversational notebook. You write into a
conversation; chat commands (rewrite, summarize, analyze) run over what
you have written since that command last ran and stream their results
back into the conversation.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.ChatCmd())
	rootCmd.AddCommand(cli.ConversationCmd())
	rootCmd.AddCommand(cli.CommandCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	db.Close()
}
