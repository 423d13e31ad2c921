package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/thoughtstream/internal/config"
	"github.com/example/thoughtstream/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the thoughtstream database and configuration",
		Long:  `Initialize the database at ~/.thoughtstream/thoughtstream.db and write a default config.json if none exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing database at %s\n", dbPath)
			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")

			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			configPath := dir + "/config.json"
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.SaveConfig(dir, config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Printf("✓ Default config written to %s\n", configPath)
			} else {
				fmt.Printf("✓ Existing config kept at %s\n", configPath)
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  export THOUGHTSTREAM_API_KEY=...")
			fmt.Println("  thoughtstream chat")

			return nil
		},
	}
}
