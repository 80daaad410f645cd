package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codegraphd/codegraphd/internal/config"
)

// cfgFile stores an optional explicit path to a config file (if not
// provided we try ./codegraphd.config.{json,yaml,toml} by default).
var cfgFile string

// workspace (--root) and outputFile (--out) mirror the daemon's own
// config.Config fields so every subcommand shares the same precedence
// (flag > env > config file > spec §6 default) that config.Load resolves.
var workspace string
var outputFile string

// cfg is the resolved configuration, loaded once in PersistentPreRunE and
// read by every subcommand.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "codegraphd",
	Short: "Structural code graph daemon: extraction, clustering, and query over a repository",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("root") {
			loaded.Root = workspace
		}
		if cmd.Flags().Changed("out") {
			loaded.Out = outputFile
		}
		cfg = loaded
		return nil
	},
}

// Execute is called from main.go and starts the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./codegraphd.config.{json,yaml,toml})")
	rootCmd.PersistentFlags().StringVar(&workspace, "root", ".", "repo root to scan")
	rootCmd.PersistentFlags().StringVar(&outputFile, "out", "", "write snapshot/output to this path instead of .graph/")
}
