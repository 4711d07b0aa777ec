package format

import (
	"fmt"
	"io"

	"github.com/pel-lang/pel"
)

// MarkdownFormatter renders a pel.Result as a Markdown report: a heading,
// a table of final variable values (or Monte Carlo percentiles), and a
// constraint-violation log. Grounded on go-calcmark's MarkdownFormatter
// (fenced-block-per-calculation layout), generalized to a tabular model
// report since PEL results are shaped by run rather than by document block.
type MarkdownFormatter struct{}

// Extensions returns the file extensions handled by this formatter.
func (f *MarkdownFormatter) Extensions() []string { return []string{".md", ".markdown"} }

// Format writes result as a Markdown report to w.
func (f *MarkdownFormatter) Format(w io.Writer, result *pel.Result, opts Options) error {
	fmt.Fprintf(w, "# PEL run `%s`\n\n", result.RunID)
	fmt.Fprintf(w, "- mode: `%v`\n- status: **%s**\n\n", result.Mode, result.Status)

	if len(result.Variables) > 0 {
		fmt.Fprintln(w, "| variable | final value |")
		fmt.Fprintln(w, "| --- | --- |")
		for _, name := range sortedKeys(result.Variables) {
			series := result.Variables[name]
			if len(series) == 0 {
				continue
			}
			fmt.Fprintf(w, "| %s | %s |\n", name, formatNumber(series[len(series)-1]))
		}
		fmt.Fprintln(w)
	}

	if len(result.Summary) > 0 {
		fmt.Fprintln(w, "| variable | p5 | p50 | p95 |")
		fmt.Fprintln(w, "| --- | --- | --- | --- |")
		for _, name := range sortedSummaryKeys(result.Summary) {
			s := result.Summary[name]
			if len(s.P50) == 0 {
				continue
			}
			last := len(s.P50) - 1
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", name,
				formatNumber(s.P5[last]), formatNumber(s.P50[last]), formatNumber(s.P95[last]))
		}
		fmt.Fprintln(w)
	}

	if len(result.Sensitivity) > 0 {
		fmt.Fprintln(w, "| driver | base | half-diff |")
		fmt.Fprintln(w, "| --- | --- | --- |")
		for _, e := range result.Sensitivity {
			fmt.Fprintf(w, "| %s | %s | %v |\n", e.Param, formatNumber(e.BaseValue), e.HalfDiff)
		}
		fmt.Fprintln(w)
	}

	if len(result.Violations) > 0 {
		fmt.Fprintln(w, "## Constraint violations")
		fmt.Fprintln(w)
		for _, v := range result.Violations {
			fmt.Fprintf(w, "- `%s` **%s** at t=%d: %s\n", v.Constraint, v.Severity, v.T, v.Message)
		}
	}

	return nil
}
