// Package cli implements the zmg command line: the API server, the MCP
// server and user administration.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zmg-ops/zmg-management/internal/logger"
)

var (
	version    = "dev"
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "zmg",
	Short: "ZMG management system",
	Long: `ZMG management system keeps daily plans, Huawei rollout tracking and
purchase-order status in Google Sheets, and files in Google Drive.

Run "zmg serve" to start the web API. Configuration is read from
~/.zmg/config.toml (or --config) and ZMG_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.zmg/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by "zmg version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
