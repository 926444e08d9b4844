package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/server/endpoints"
)

var (
	serverURL string
	userID    string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Folio server via HTTP.

These commands require a running server (folio serve). The --user flag sets
the acting user; in production the gateway supplies it.

Examples:
  folio api health                         # Check server health
  folio api ebooks create "Gardening"      # Start a generation
  folio api ebooks list                    # List your ebooks
  folio api schedules list                 # List your schedules`,
}

var ebooksCmd = &cobra.Command{
	Use:   "ebooks",
	Short: "Ebook generation and tracking commands",
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Recurring generation schedule commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Persistent so all subcommands inherit them
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)
	apiCmd.PersistentFlags().StringVar(
		&userID, "user", "1", "Acting user ID sent as X-User-ID",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Discovery at top level
	apiCmd.AddCommand((&endpoints.TrendingEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.LanguagesEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.PlatformsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	// Ebooks as subcommand group
	for _, ep := range endpoints.EbookCommands() {
		if cmd := ep.Command(getServerURL); cmd != nil {
			ebooksCmd.AddCommand(cmd)
		}
	}

	// Schedules as subcommand group
	for _, ep := range endpoints.ScheduleCommands() {
		if cmd := ep.Command(getServerURL); cmd != nil {
			schedulesCmd.AddCommand(cmd)
		}
	}

	apiCmd.AddCommand(ebooksCmd)
	apiCmd.AddCommand(schedulesCmd)
	rootCmd.AddCommand(apiCmd)
}
