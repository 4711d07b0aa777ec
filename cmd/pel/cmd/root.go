// Package cmd implements PEL's CLI surface: compile, run, and calibrate
// subcommands over spf13/cobra, with configuration loaded through
// spf13/viper. Grounded on go-calcmark's cmd/calcmark/cmd package (the
// rootCmd/Execute/init wiring, and eval.go's file-or-stdin RunE pattern),
// generalized from CalcMark's REPL-first CLI to PEL's batch compile/run/
// calibrate workflow.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pel-lang/pel/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pel",
	Short: "PEL - a dimensional-unit DSL for economic and financial models",
	Long: `PEL compiles and runs Programmable Economic Language models:
a model declares params (assumptions, with required provenance), time-
indexed vars, and constraints, then compiles to a canonical IR and executes
under deterministic, Monte Carlo, or sensitivity modes.

Examples:
  pel compile model.pel              Compile a model and print its IR
  pel run model.pel                  Run a model deterministically
  pel run model.pel --mode=mc -n 1000  Run 1000 Monte Carlo replications
  pel calibrate model.pel --calibration-config calib.yaml --data history.csv  Fit params from historical data`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv("PEL_CONFIG_FILE", cfgFile); err != nil {
				return err
			}
		}
		if _, err := config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a .pel.toml config file (overrides defaults)")
}
