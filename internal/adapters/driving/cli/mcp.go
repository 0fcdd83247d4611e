package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zmg-ops/zmg-management/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a read-only Model Context Protocol server over the spreadsheet tables.

Tool calls act with the permissions of auth.service_role (default: viewer).

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead. HTTP binds to 127.0.0.1 unless --host says
otherwise, and any non-loopback host requires a bearer token (--token or
ZMG_MCP_TOKEN).

Examples:
  # Stdio mode (default, for desktop assistants)
  zmg mcp serve

  # HTTP mode on this machine (for MCP Inspector)
  zmg mcp serve --port 8090

  # HTTP mode for other machines
  ZMG_MCP_TOKEN=... zmg mcp serve --host 0.0.0.0 --port 8090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", mcp.DefaultHost, "HTTP bind host")
	mcpServeCmd.Flags().String("token", "", "bearer token HTTP clients must send (default $ZMG_MCP_TOKEN)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	httpCfg, err := mcpHTTPConfig(cmd)
	if err != nil {
		return err
	}
	if httpCfg.Port > 0 {
		// Fail before loading the app if the listener would be exposed.
		if err := httpCfg.Validate(); err != nil {
			return err
		}
	}

	app, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	role := app.Settings.Auth.ServiceRole
	ports := &mcp.Ports{
		Tables:         app.Tables,
		PurchaseOrders: app.PurchaseOrders,
		Principal:      mcp.ServicePrincipal(role, app.Auth.PermissionsFor(role)),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if httpCfg.Port > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", httpCfg.Addr())
		return server.RunHTTP(cmd.Context(), httpCfg)
	}

	return server.Run(cmd.Context())
}

func mcpHTTPConfig(cmd *cobra.Command) (mcp.HTTPConfig, error) {
	var cfg mcp.HTTPConfig
	var err error
	if cfg.Port, err = cmd.Flags().GetInt("port"); err != nil {
		return cfg, fmt.Errorf("getting port flag: %w", err)
	}
	if cfg.Host, err = cmd.Flags().GetString("host"); err != nil {
		return cfg, fmt.Errorf("getting host flag: %w", err)
	}
	if cfg.Token, err = cmd.Flags().GetString("token"); err != nil {
		return cfg, fmt.Errorf("getting token flag: %w", err)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("ZMG_MCP_TOKEN")
	}
	return cfg, nil
}
