package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pel-lang/pel"
)

var compileCmd = &cobra.Command{
	Use:   "compile [model.pel]",
	Short: "Compile a model to its canonical IR and print it as JSON",
	Long: `Compile parses, dimensionally type-checks, and provenance-checks a
model, then prints its canonical IR as byte-stable JSON.

Examples:
  pel compile model.pel
  cat model.pel | pel compile`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readModelSource(args)
		if err != nil {
			return err
		}
		doc, err := pel.Compile(src)
		if err != nil {
			return fmt.Errorf("compile: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
