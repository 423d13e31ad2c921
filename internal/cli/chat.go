package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/thoughtstream/internal/command"
	"github.com/example/thoughtstream/internal/ports/primary"
	"github.com/example/thoughtstream/internal/wire"
)

// ChatCmd returns the interactive chat command.
func ChatCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start or resume an interactive conversation",
		Long: `Opens an interactive chat session. Plain text is recorded as
conversation; text starting with the command prefix runs a command over
the messages you have written since that command last ran.

Session controls:
  /retry    retry the last failed command
  /cancel   cancel the running command
  /quit     leave the chat (the conversation is kept)

Examples:
  thoughtstream chat                      # start a new conversation
  thoughtstream chat --conversation ID    # resume an existing one`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			service := wire.SessionService()
			adapter := wire.SessionAdapter()

			if err := adapter.Attach(cmd.Context(), conversationID); err != nil {
				return err
			}
			unsubscribe := service.Subscribe(conversationID, adapter)
			defer unsubscribe()
			defer service.Detach(conversationID)

			fmt.Printf("conversation %s\n", conversationID)
			fmt.Printf("commands: %s  (/retry, /cancel, /quit)\n\n", commandHints())

			prompt := color.New(color.FgCyan, color.Bold).Sprint("you> ")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				waitWhileLoading(service, conversationID)
				fmt.Print(prompt)
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())

				switch text {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/retry":
					if err := adapter.Retry(cmd.Context(), conversationID); err != nil {
						return err
					}
					continue
				case "/cancel":
					service.Cancel(conversationID)
					continue
				}

				if err := adapter.Submit(cmd.Context(), conversationID, text); err != nil {
					// Store failures are already surfaced as notices;
					// keep the session alive.
					continue
				}
			}
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation ID to resume")
	return cmd
}

// waitWhileLoading holds the prompt back while a command is executing,
// so streamed output is not interleaved with user input.
func waitWhileLoading(service primary.SessionService, conversationID string) {
	for service.Status(conversationID).Kind == primary.StatusLoading {
		time.Sleep(50 * time.Millisecond)
	}
}

func commandHints() string {
	var hints []string
	for _, def := range command.All() {
		hints = append(hints, command.Prefix+def.Key)
	}
	return strings.Join(hints, "  ")
}
