package cmd

import (
	"fmt"
	"os"

	"jsoncache/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is reported to MCP clients.
var Version = "1.0.0"

var configFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "jsoncache",
	Short: "JSON Cache Service",
	Long: `jsoncache keeps one or more JSON documents in memory and answers key lookups,
including nested dotted keys, over MCP, a REST/WebSocket dashboard and the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError logs err through a fixed console logger; the configured one may be
// what failed to load.
func reportError(err error) {
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	l.Error("command failed", zap.Error(err))
	_ = l.Sync()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default ./jsoncache.yaml or $XDG_CONFIG_HOME/jsoncache/config.yaml)")
}
