package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/horizonlabs/horizon-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local storage and the backend",
	Long: `Check the health of horizon-chat by verifying:
  • Configuration loading and validation
  • Local session storage access
  • Backend reachability (/health)

This command is useful for debugging setup issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		say := func(a ...interface{}) { _, _ = fmt.Fprintln(out, a...) }
		detail := func(f string, a ...interface{}) {
			if healthcheckDetails {
				_, _ = fmt.Fprintf(out, "   "+f+"\n", a...)
			}
		}

		var (
			cfg          *internal.Config
			sessionCount int
			health       internal.HealthStatus
			backendURL   string
			cfgErr       error
			storeErr     error
			backendErr   error
		)
		steps := []internal.ProgressStep{
			{Message: "Loading configuration", Fn: func() error {
				cfg, cfgErr = loadSettings()
				return cfgErr
			}},
			{Message: "Opening local session storage", Fn: func() error {
				sessionCount, storeErr = checkStore(cfg)
				return storeErr
			}},
			{Message: "Contacting backend", Fn: func() error {
				backendURL, health, backendErr = checkBackend(cmd.Context(), cfg)
				return backendErr
			}},
		}
		// Failures are reported below, per step
		_ = internal.ShowProgressWithSteps(cmd.Context(), steps)

		say(sectionStyle.Render("🔍 Horizon Chat Health Check"))
		say()

		// Step 1: configuration
		say(infoStyle.Render("Step 1: Loading configuration..."))
		if cfgErr != nil {
			say(errorStyle.Render("❌ Configuration is invalid:"), cfgErr)
			return fmt.Errorf("health check failed: %w", cfgErr)
		}
		say(successStyle.Render("✅ Configuration loaded"))
		detail("Backend: %s", cfg.BackendURL)
		detail("Store: %s", cfg.StoreDriver)
		detail("Data directory: %s", cfg.DataDir)
		detail("Request timeout: %s", cfg.RequestTimeout)
		say()

		// Step 2: local storage
		say(infoStyle.Render("Step 2: Opening local session storage..."))
		if storeErr != nil {
			say(errorStyle.Render("❌ Failed to open local storage:"), storeErr)
			return fmt.Errorf("health check failed: %w", storeErr)
		}
		say(successStyle.Render(fmt.Sprintf("✅ Local storage available (%d session(s))", sessionCount)))
		say()

		// Step 3: backend
		say(infoStyle.Render("Step 3: Contacting backend..."))
		if backendErr != nil {
			say(errorStyle.Render("❌ Backend health check failed:"), backendErr)
		} else {
			say(successStyle.Render(fmt.Sprintf("✅ Backend at %s is healthy (status: %s)", backendURL, health.Status)))
		}
		say()

		say(sectionStyle.Render("📊 Summary"))
		say()
		if backendErr != nil {
			say(warningStyle.Render("⚠️  Local storage works but the backend is unreachable"))
			say("   • Sessions can be listed, renamed and deleted")
			say("   • Sending messages and restoring history will fail")
			return fmt.Errorf("health check failed: backend unavailable at %s", cfg.BackendURL)
		}
		say(successStyle.Render("✅ Health check passed!"))
		say(successStyle.Render(fmt.Sprintf("   • Sessions: %d stored locally", sessionCount)))
		return nil
	},
}

func checkStore(cfg *internal.Config) (int, error) {
	kv, err := internal.OpenKeyValueStore(cfg.StoreDriver, cfg.DataDir)
	if err != nil {
		return 0, err
	}
	defer func() { _ = kv.Close() }()
	return len(internal.NewSessionStore(kv).List()), nil
}

func checkBackend(ctx context.Context, cfg *internal.Config) (string, internal.HealthStatus, error) {
	client := internal.NewBackendClient(cfg.BackendURL, nil, cfg.RequestTimeout)
	status, err := client.Health(ctx)
	return client.BaseURL(), status, err
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
