package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/thoughtstream/internal/config"
	"github.com/example/thoughtstream/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the thoughtstream environment",
		Long: `Environment health check for thoughtstream.

Validates:
- Configuration (~/.thoughtstream/config.json)
- Database (schema and migrations)
- API key resolution for the remote backend
- Remote endpoint reachability

Examples:
  thoughtstream doctor           # Run full health check
  thoughtstream doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.LoadConfig()

			results := make([]CheckResult, 4)
			results[0] = checkConfig(cfg, cfgErr)

			// Remaining checks are independent; run them in parallel.
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				results[1] = checkDatabase()
				return nil
			})
			g.Go(func() error {
				results[2] = checkAPIKey(cfg)
				return nil
			})
			g.Go(func() error {
				results[3] = checkRemote(ctx, cfg)
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check         Status")
				fmt.Println("────────────────────")
				for _, r := range results {
					fmt.Printf("%-13s %s\n", r.Name, r.Status)
				}
				fmt.Println()
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						fmt.Printf("%s: %s\n", r.Name, r.Details)
					}
				}
			}

			if hasErrors {
				return fmt.Errorf("environment has issues")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "exit code only, no output")
	return cmd
}

func checkConfig(cfg *config.Config, err error) CheckResult {
	if err != nil {
		return CheckResult{Name: "config", Status: "✗", Details: err.Error()}
	}
	if cfg.Backend == config.BackendRemote && cfg.BaseURL == "" {
		return CheckResult{Name: "config", Status: "✗", Details: "remote backend configured without base_url"}
	}
	return CheckResult{Name: "config", Status: "✓"}
}

func checkDatabase() CheckResult {
	database, err := db.GetDB()
	if err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	if err := database.Ping(); err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	return CheckResult{Name: "database", Status: "✓"}
}

func checkAPIKey(cfg *config.Config) CheckResult {
	if cfg == nil || cfg.Backend != config.BackendRemote {
		return CheckResult{Name: "api key", Status: "✓"}
	}
	if cfg.APIKey() == "" {
		return CheckResult{
			Name:    "api key",
			Status:  "✗",
			Details: fmt.Sprintf("environment variable %s is not set", cfg.APIKeyEnv),
		}
	}
	return CheckResult{Name: "api key", Status: "✓"}
}

func checkRemote(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil || cfg.Backend != config.BackendRemote {
		return CheckResult{Name: "remote", Status: "✓"}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.BaseURL, nil)
	if err != nil {
		return CheckResult{Name: "remote", Status: "✗", Details: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return CheckResult{Name: "remote", Status: "⚠", Details: fmt.Sprintf("endpoint unreachable: %v", err)}
	}
	resp.Body.Close()
	return CheckResult{Name: "remote", Status: "✓"}
}
