// Command vizinspect prints legends, generated style programs and pick
// results for a dataset description.
//
// Usage:
//
//	vizinspect legend --dataset ds.yaml --property kind --palette prism
//	vizinspect shader --dataset ds.yaml --property price --palette sunset --compile
//	vizinspect pick --dataset ds.yaml --features roads.geojson --x 3 --y 4
//
// Every flag can also be set through a VIZINSPECT_* environment variable,
// for example VIZINSPECT_DATASET=ds.yaml.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/viz"
)

var (
	// Version information, set at build time.
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := viper.New()
	cfg.SetEnvPrefix("VIZINSPECT")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	root := &cobra.Command{
		Use:   "vizinspect",
		Short: "Inspect styling expressions over a dataset",
		Long: `vizinspect binds styling expressions to a dataset description or a
metadata snapshot and prints what the renderer would see: legends, the
generated WGSL style program and the features under a position.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if cfg.GetBool("verbose") {
				viz.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("dataset", "", "dataset description file (YAML, JSON or TOML)")
	pf.String("snapshot", "", "metadata snapshot file, used instead of --dataset")
	pf.Bool("verbose", false, "log debug output to stderr")

	root.AddCommand(newLegendCmd(cfg))
	root.AddCommand(newShaderCmd(cfg))
	root.AddCommand(newPickCmd(cfg))
	root.AddCommand(newSnapshotCmd(cfg))
	root.AddCommand(versionCmd)
	return root
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vizinspect %s (%s, %s)\n", Version, GitCommit, runtime.Version())
	},
}
