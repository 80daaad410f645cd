package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/config"
	"github.com/codegraphd/codegraphd/internal/extract"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/ignore"
	"github.com/codegraphd/codegraphd/internal/metrics"
	"github.com/codegraphd/codegraphd/internal/snapshot"
)

// buildStore walks cfg.Root, extracting every watched, non-ignored file
// into a fresh Store, the shared one-shot counterpart to what
// daemonsup.Supervisor.scan does incrementally under the watcher.
func buildStore(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*graphcore.Store, int, int, error) {
	store := graphcore.New()
	registry := extract.NewRegistry()
	matcher := ignore.New(cfg.IgnorePatterns)

	var scanned, failed int
	err := filepath.WalkDir(cfg.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(cfg.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) || !registry.Watched(rel) {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			failed++
			m.RecordError()
			return nil
		}
		rec := registry.Extract(rel, content)
		if _, err := store.ApplyDelta(rel, rec.ToDelta()); err != nil {
			failed++
			m.RecordError()
			return nil
		}
		scanned++
		return nil
	})
	if err != nil {
		return nil, scanned, failed, fmt.Errorf("walk %s: %w", cfg.Root, err)
	}
	store.ResolveAll()
	return store, scanned, failed, nil
}

func clusterOptions(cfg config.Config) cluster.Options {
	opt := cluster.DefaultOptions()
	opt.TargetReduction = cfg.TargetReduction
	opt.MinClusterSize = cfg.MinClusterSize
	opt.MaxClusters = cfg.MaxClusters
	opt.SmallProjectThreshold = cfg.SmallProjectThreshold
	opt.Resolution = cfg.Resolution
	return opt
}

// scanCmd performs one pass of extraction over cfg.Root and writes the
// resulting graph, supergraph, and cluster membership into cfg.GraphDir,
// the one-shot equivalent of what daemonsup.Supervisor does on startup.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the repo once, build the structural graph, and write a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		m := metrics.New()
		store, scanned, failed, err := buildStore(ctx, cfg, m)
		if err != nil {
			return err
		}

		result := cluster.Compute(store, clusterOptions(cfg))

		graphDir := cfg.GraphDir
		if cfg.Out != "" {
			graphDir = cfg.Out
		} else {
			graphDir = filepath.Join(cfg.Root, cfg.GraphDir)
		}
		w, err := snapshot.New(graphDir)
		if err != nil {
			return err
		}
		if err := w.Write(store, result, m); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "scanned %d files (%d failed), %d clusters, wrote %s\n", scanned, failed, len(result.Clusters), graphDir)
		return nil
	},
}

func init() { rootCmd.AddCommand(scanCmd) }
