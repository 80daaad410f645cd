package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/metrics"
	"github.com/codegraphd/codegraphd/internal/query"
)

var (
	queryMaxDepth int
	queryReverse  bool
	queryTypes    string
	queryLimit    int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a one-shot structural query against a fresh scan of --root",
}

var findRelatedCmd = &cobra.Command{
	Use:   "find-related <file>",
	Short: "List files related to <file> within --max-depth hops",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := scanForQuery()
		if err != nil {
			return err
		}
		rel := query.FindRelated(store, args[0], queryMaxDepth, edgeTypesFromFlag(queryTypes), queryReverse)
		return printJSON(rel)
	},
}

var searchSymbolsCmd = &cobra.Command{
	Use:   "search-symbols <keyword> [keyword...]",
	Short: "Search extracted symbols and file paths for keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := scanForQuery()
		if err != nil {
			return err
		}
		return printJSON(query.SearchSymbols(store, args))
	},
}

var hotPathsCmd = &cobra.Command{
	Use:   "hot-paths",
	Short: "List the highest-degree chains in the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := scanForQuery()
		if err != nil {
			return err
		}
		return printJSON(query.HotPaths(store, queryLimit))
	},
}

var detectCyclesCmd = &cobra.Command{
	Use:   "detect-cycles",
	Short: "List import/include cycles in the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := scanForQuery()
		if err != nil {
			return err
		}
		return printJSON(query.DetectCycles(store))
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print the composite architecture overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := scanForQuery()
		if err != nil {
			return err
		}
		return printJSON(query.ArchitectureOverview(store, metrics.New(), queryLimit))
	},
}

func scanForQuery() (*graphcore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	store, _, _, err := buildStore(ctx, cfg, metrics.New())
	return store, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func edgeTypesFromFlag(raw string) []graphcore.EdgeType {
	if raw == "" {
		return nil
	}
	var out []graphcore.EdgeType
	for _, s := range strings.Split(raw, ",") {
		switch strings.TrimSpace(s) {
		case "import":
			out = append(out, graphcore.Import)
		case "include":
			out = append(out, graphcore.Include)
		case "require":
			out = append(out, graphcore.Require)
		case "call":
			out = append(out, graphcore.Call)
		case "inheritance":
			out = append(out, graphcore.Inheritance)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(findRelatedCmd, searchSymbolsCmd, hotPathsCmd, detectCyclesCmd, overviewCmd)

	findRelatedCmd.Flags().IntVar(&queryMaxDepth, "max-depth", 2, "maximum hop count")
	findRelatedCmd.Flags().BoolVar(&queryReverse, "include-reverse", false, "also follow reverse (dependent) edges")
	findRelatedCmd.Flags().StringVar(&queryTypes, "types", "", "comma-separated edge types to follow (import,include,require,call,inheritance)")

	hotPathsCmd.Flags().IntVar(&queryLimit, "limit", 20, "maximum number of chains to return")
	overviewCmd.Flags().IntVar(&queryLimit, "hot-path-limit", 20, "hot path chains to include in the overview")
}
