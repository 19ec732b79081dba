package cmd

import (
	"fmt"

	"jsoncache/core/config"
	"jsoncache/core/logger"
	"jsoncache/core/querymap"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var convertWorkers int

// convertCmd turns queryMap XML files into JSON sources.
var convertCmd = &cobra.Command{
	Use:   "convert <file|dir> [output]",
	Short: "Convert queryMap XML files to JSON sources",
	Long: `Converts a queryMap file (*.glue_sql, *.xml) into a JSON document keyed by module
code and query id. A directory converts every matching file next to its input.
The output path only applies to a single file and defaults to <name>.json.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".", configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		var output string
		if len(args) == 2 {
			output = args[1]
		}

		report, err := querymap.NewConverter(log, convertWorkers).Convert(args[0], output)
		if len(report.Conversions) > 0 {
			log.Info("Conversion finished",
				zap.Int("succeeded", report.Succeeded),
				zap.Int("failed", report.Failed),
			)
		}
		if perr := printJSON(cmd.OutOrStdout(), report); perr != nil && err == nil {
			err = perr
		}
		return err
	},
}

func init() {
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", 4, "files converted concurrently")
	RootCmd.AddCommand(convertCmd)
}
