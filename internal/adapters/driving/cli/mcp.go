package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/mcp"
	"github.com/custodia-labs/tollgate/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose tollgate to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server so assistants can issue, redeem and
check licences. Every tool takes a caller_id and applies the same privilege
rules as the chat commands. Privilege changes in config.toml apply while
the server runs.

Without --addr the server speaks JSON-RPC on stdio, one client per process:

  {"mcpServers": {"tollgate": {"command": "tollgate", "args": ["mcp", "serve"]}}}

With --addr it serves streamable HTTP, which the MCP Inspector can reach:

  tollgate mcp serve --addr 127.0.0.1:8080

--sweep also runs the expiry sweeper, for deployments where no serve
process does.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("addr", "", "serve HTTP on this address instead of stdio")
	mcpServeCmd.Flags().Bool("sweep", false, "run the expiry sweeper alongside")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	sweep, err := cmd.Flags().GetBool("sweep")
	if err != nil {
		return fmt.Errorf("getting sweep flag: %w", err)
	}

	svc, err := loadServices(false)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Access:  svc.Access,
		Journal: svc.Journal,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if sweep && svc.Scheduler != nil {
		g.Go(func() error {
			return svc.Scheduler.Start(gctx)
		})
	}
	if svc.Watch != nil {
		g.Go(func() error {
			if err := svc.Watch(gctx); err != nil {
				logger.Warn("config: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		// The client hanging up ends the sweeper and watcher too.
		defer cancel()
		if addr != "" {
			cmd.PrintErrf("MCP server listening on http://%s\n", addr)
			return server.RunHTTP(gctx, addr)
		}
		return server.Run(gctx)
	})

	return g.Wait()
}
