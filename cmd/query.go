package cmd

import (
	"encoding/json"
	"io"
	"strings"

	"jsoncache/feature/tools"

	"github.com/spf13/cobra"
)

var (
	querySource string
	keysSource  string
	keysPrefix  string
	keysDepth   int
)

// queryCmd resolves one key and prints the result.
var queryCmd = &cobra.Command{
	Use:   "query <key>",
	Short: "Look up a key",
	Long: `Loads every source and resolves the key case-insensitively, through namespace
prefixes and dotted paths. Without --source the primary source is searched first.
A miss prints the loaded sources and still exits 0.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		res, err := a.coord.Query(args[0], querySource)
		if err != nil {
			return err
		}
		if !res.Found {
			return printJSON(cmd.OutOrStdout(), tools.NewQueryMiss(res, a.coord.LoadedSources()))
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// keysCmd lists the flattened keys of the loaded sources.
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cached keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		keys, err := a.coord.ListKeys(keysSource, keysPrefix, keysDepth)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), strings.Join(keys, "\n")+"\n")
		return err
	},
}

// statsCmd prints the statistics gathered while loading.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		return printJSON(cmd.OutOrStdout(), a.coord.GlobalStats())
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	queryCmd.Flags().StringVarP(&querySource, "source", "s", "", "search only this source")
	keysCmd.Flags().StringVarP(&keysSource, "source", "s", "", "list keys of this source only")
	keysCmd.Flags().StringVarP(&keysPrefix, "prefix", "p", "", "only keys starting with this prefix")
	keysCmd.Flags().IntVarP(&keysDepth, "depth", "d", 0, "flattening depth (default cache.max_depth)")

	RootCmd.AddCommand(queryCmd, keysCmd, statsCmd)
}
