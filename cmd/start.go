package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jsoncache/core/loader"
	"jsoncache/core/server"
	"jsoncache/core/watcher"
	"jsoncache/feature/dashboard"

	"github.com/spf13/cobra"

	_ "jsoncache/docs/swagger"
)

// @title jsoncache API
// @version 1.0
// @description Key lookups, statistics and reloads over cached JSON sources.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dashboard server",
	Long:  `Loads every source, starts the file watcher and serves the REST/WebSocket dashboard.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		app := server.New(a.cfg.Server, a.log)

		feature := dashboard.NewFeature(a.coord, a.log, a.cfg.Server.Dashboard, a.metrics.Handler())
		feature.Hub().OnClientsChange(a.metrics.SetStreamClients)

		mgr := loader.NewManager(a.log)
		mgr.Register(feature)
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		w, err := startWatcher(ctx, a, feature.Hub().BroadcastReload)
		if err != nil {
			return err
		}
		defer w.Close()

		return server.Run(ctx, app, a.cfg.Server, a.log)
	},
}

// startWatcher watches the sources marked for it and forwards every reload to listeners.
func startWatcher(ctx context.Context, a *instance, listeners ...watcher.Listener) (*watcher.Watcher, error) {
	w, err := watcher.New(a.coord, a.coord.WatchedSources(), a.cfg.Watch, watcher.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	for _, l := range listeners {
		w.OnReload(l)
	}
	if !a.cfg.Watch.Enabled {
		a.log.Info("File watching disabled")
		return w, nil
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func init() {
	RootCmd.AddCommand(startCmd)
}
