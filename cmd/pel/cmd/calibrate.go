package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pel-lang/pel"
	"github.com/pel-lang/pel/calibrate"
)

var (
	calibrateConfigPath string
	calibrateDataPath   string
	calibrateTimestamp  string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [model.pel]",
	Short: "Fit calibrated distributions from historical CSV data and rewrite the model's IR",
	Long: `Calibrate loads historical observations from a CSV file, fits each
requested param's distribution per a YAML calibration config (pel_param ->
data_column, distribution_family), and rewrites the compiled model's IR so
each calibrated param's value_expr becomes that fitted distribution.

Example:
  pel calibrate model.pel --data history.csv --calibration-config calibration.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if calibrateConfigPath == "" {
			return fmt.Errorf("--calibration-config is required")
		}
		if calibrateDataPath == "" {
			return fmt.Errorf("--data is required")
		}
		if err := validateCalibrationConfigPath(calibrateConfigPath); err != nil {
			return fmt.Errorf("invalid --calibration-config: %w", err)
		}

		src, err := readModelSource(args)
		if err != nil {
			return err
		}

		configFile, err := os.Open(calibrateConfigPath)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		defer configFile.Close()
		fileCfg, err := calibrate.LoadConfig(configFile)
		if err != nil {
			return err
		}
		requests, err := fileCfg.Requests()
		if err != nil {
			return err
		}

		dataFile, err := os.Open(calibrateDataPath)
		if err != nil {
			return fmt.Errorf("open data: %w", err)
		}
		defer dataFile.Close()

		columns := make(map[string]string, len(requests))
		for _, r := range requests {
			columns[r.Column] = r.Column
		}
		table, err := calibrate.LoadCSV(dataFile, columns)
		if err != nil {
			return fmt.Errorf("load csv: %w", err)
		}

		report, err := calibrate.Calibrate(table, requests)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}

		doc, err := pel.Compile(src)
		if err != nil {
			return fmt.Errorf("compile: %w", err)
		}
		timestamp := calibrateTimestamp
		if timestamp == "" {
			// cmd/pel is the one layer permitted to read the wall clock;
			// calibrate itself stays pure and takes the timestamp as input.
			timestamp = time.Now().UTC().Format(time.RFC3339)
		}
		if err := report.ApplyToIR(doc, timestamp); err != nil {
			return fmt.Errorf("apply calibration: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func init() {
	// Named calibration-config, not config, since the root command already
	// owns a persistent --config flag for the .pel.toml settings file and
	// pflag would silently let the inherited one win over a same-named local
	// flag.
	calibrateCmd.Flags().StringVar(&calibrateConfigPath, "calibration-config", "", "path to a YAML calibration config (pel_param -> data_column, distribution_family)")
	calibrateCmd.Flags().StringVar(&calibrateDataPath, "data", "", "path to a CSV file of historical observations")
	calibrateCmd.Flags().StringVar(&calibrateTimestamp, "timestamp", "", "RFC3339 timestamp recorded in the calibrated provenance (default: now)")
	rootCmd.AddCommand(calibrateCmd)
}
