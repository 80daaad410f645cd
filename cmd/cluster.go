package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/metrics"
)

// clusterCmd computes the module clustering (spec §4.6, C6) over a fresh
// scan of --root and prints the result, the direct-invocation counterpart
// to the recluster daemonsup.Supervisor runs automatically.
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Compute and print the module clustering for --root",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		store, _, _, err := buildStore(ctx, cfg, metrics.New())
		if err != nil {
			return err
		}
		return printJSON(cluster.Compute(store, clusterOptions(cfg)))
	},
}

func init() { rootCmd.AddCommand(clusterCmd) }
