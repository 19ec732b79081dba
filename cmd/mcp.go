package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"jsoncache/core/loader"
	"jsoncache/core/server"
	"jsoncache/core/watcher"
	"jsoncache/feature/dashboard"
	"jsoncache/feature/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var mcpDashboard bool

// mcpCmd serves the cache to MCP clients over stdin/stdout.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP query tools over stdio",
	Long: `Loads every source and serves the query_json, list_keys, get_cache_stats,
reload_source and list_sources tools over stdin/stdout. Logs go to stderr.
With --dashboard the REST/WebSocket dashboard runs alongside.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		g, ctx := errgroup.WithContext(ctx)

		var listeners []watcher.Listener
		toolOpts := []tools.Option{tools.WithLogger(a.log)}
		if mcpDashboard {
			app := server.New(a.cfg.Server, a.log)
			feature := dashboard.NewFeature(a.coord, a.log, true, a.metrics.Handler())
			feature.Hub().OnClientsChange(a.metrics.SetStreamClients)

			mgr := loader.NewManager(a.log)
			mgr.Register(feature)
			if err := mgr.LoadAll(app); err != nil {
				return err
			}

			listeners = append(listeners, feature.Hub().BroadcastReload)
			toolOpts = append(toolOpts, tools.WithReloadListener(feature.Hub().BroadcastReload))
			g.Go(func() error {
				return server.Run(ctx, app, a.cfg.Server, a.log)
			})
		}

		w, err := startWatcher(ctx, a, listeners...)
		if err != nil {
			return err
		}
		defer w.Close()

		srv := tools.NewServer(a.coord, Version, toolOpts...)
		a.log.Info("MCP server ready",
			zap.Strings("sources", a.coord.LoadedSources()),
			zap.String("primary", a.coord.PrimarySource()),
		)
		g.Go(func() error {
			defer stop()
			if err := tools.ServeStdio(ctx, srv, os.Stdin, os.Stdout, a.log); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})

		return g.Wait()
	},
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpDashboard, "dashboard", false, "also serve the HTTP/WebSocket dashboard")
	RootCmd.AddCommand(mcpCmd)
}
