package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/tick/internal/cli"
	"github.com/aretw0/tick/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the tick engine as an MCP Server.
This allows AI agents to hold conversations with the story through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg, cli.AppOptions{Debug: debugFlag(cmd)})
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			app.Logger.Info("Starting tick MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			baseURL, _ := cmd.Flags().GetString("base-url")
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			if err := srv.ServeSSE(sigCtx, addr, baseURL); err != nil {
				return err
			}
			app.Logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL of the SSE endpoints")
}
