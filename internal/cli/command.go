package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/thoughtstream/internal/command"
)

// CommandCmd returns the command-registry listing command.
func CommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Manage chat commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the available chat commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "KEY\tLABEL\tINVOCATION")
			fmt.Fprintln(w, "---\t-----\t----------")
			for _, def := range command.All() {
				fmt.Fprintf(w, "%s\t%s\t%s%s\n", def.Key, def.Label, command.Prefix, def.Key)
			}
			return w.Flush()
		},
	})
	return cmd
}
