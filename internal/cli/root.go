// Package cli wires the ensemble library into the mlipens command.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mlipens",
		Short:         "Ensemble multiple machine-learned interatomic potentials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "mlipens.yaml", "config file path (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.AddCommand(newRunCmd())
	root.AddCommand(newCalibrateCmd())
	root.AddCommand(newModelsCmd())
	return root
}

// Execute runs the CLI and exits nonzero on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
