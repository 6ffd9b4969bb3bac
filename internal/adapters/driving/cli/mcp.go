package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritus-labs/scholia/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants. On startup
the papers directory is scanned so papers added out of band are indexed.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  scholia mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  scholia mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := initApp(); err != nil {
		return err
	}
	ctx := cmd.Context()

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	// Reconcile the index with papers dropped into the tree while the
	// server was down.
	if _, err := scanner.Scan(ctx); err != nil {
		return fmt.Errorf("startup scan: %w", err)
	}
	if cfg.Papers.Watch {
		go scanner.Watch(ctx) //nolint:errcheck
	}

	ports := &mcp.Ports{
		Research: researchService,
		Report:   reportService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
