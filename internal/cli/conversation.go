package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/thoughtstream/internal/wire"
)

// ConversationCmd returns the conversation management command.
func ConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Manage conversations",
		Long:    "List, inspect, and delete stored conversations",
	}

	cmd.AddCommand(conversationListCmd())
	cmd.AddCommand(conversationShowCmd())
	cmd.AddCommand(conversationDeleteCmd())
	return cmd
}

func conversationListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ConversationAdapter().List(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of conversations (0 = all)")
	return cmd
}

func conversationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a conversation's messages and analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ConversationAdapter().Show(cmd.Context(), args[0])
		},
	}
}

func conversationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a conversation and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ConversationAdapter().Delete(cmd.Context(), args[0])
		},
	}
}
