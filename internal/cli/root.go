// Package cli provides the command-line interface for boardroom.
package cli

import (
	"os"

	"github.com/raphaelgruber/boardroom/internal/client"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	userID    string

	// Global API client
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "boardroom",
	Short: "Talk to your AI executive board",
	Long: `Boardroom puts a founder's questions in front of an AI executive board:
CEO, CTO, CFO, CMO, COO and CLO personas that answer from their own seat,
grounded in live marketplace numbers.

Messages are routed to the relevant seats automatically, or addressed
explicitly with --to. Ending a conversation records a summary of what the
board decided.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip client setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		apiClient = client.New(serverURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $BOARDROOM_SERVER_URL or http://localhost:8484)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultUser(), "founder user id")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(statsCmd)
}

func defaultUser() string {
	if u := os.Getenv("BOARDROOM_USER"); u != "" {
		return u
	}
	return "founder"
}

