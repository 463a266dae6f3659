// Command curvebuild calibrates the curves of a session file and prints them
// as JSON.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "curvebuild",
		Short: "Calibrate yield curves from a session file",
		Long: `curvebuild builds discount and projection curves from market quotes.

A session file lists the curves, their instruments and conventions, and the
stage each curve belongs to. Curves in a stage calibrate concurrently; a later
stage may discount on curves built earlier.

Examples:
  curvebuild calibrate --session usd.yaml
  curvebuild calibrate --session usd.yaml --config solver.yaml --log-level debug
  curvebuild validate --session usd.yaml`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "solver config YAML (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newCalibrateCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	return root
}
