package format

import (
	"fmt"
	"io"
	"sort"

	"github.com/pel-lang/pel"
	"github.com/pel-lang/pel/runtime"
)

// TextFormatter renders a pel.Result as plain text, the primary formatter
// for interactive CLI use. Grounded on go-calcmark's TextFormatter.
type TextFormatter struct{}

// Extensions returns the file extensions handled by this formatter.
func (f *TextFormatter) Extensions() []string { return []string{".txt"} }

// Format writes result as plain text to w.
func (f *TextFormatter) Format(w io.Writer, result *pel.Result, opts Options) error {
	fmt.Fprintf(w, "run %s  mode=%v  status=%s\n", result.RunID, result.Mode, result.Status)

	if len(result.Variables) > 0 {
		names := sortedKeys(result.Variables)
		for _, name := range names {
			series := result.Variables[name]
			if len(series) == 0 {
				continue
			}
			if opts.Verbose {
				fmt.Fprintf(w, "%s: %v\n", name, formatSeries(series))
			} else {
				fmt.Fprintf(w, "%s: %s\n", name, formatNumber(series[len(series)-1]))
			}
		}
	}

	if len(result.Summary) > 0 {
		for _, name := range sortedSummaryKeys(result.Summary) {
			s := result.Summary[name]
			if len(s.P50) == 0 {
				continue
			}
			last := len(s.P50) - 1
			fmt.Fprintf(w, "%s: p50=%s  p5=%s  p95=%s\n", name,
				formatNumber(s.P50[last]), formatNumber(s.P5[last]), formatNumber(s.P95[last]))
		}
	}

	for _, e := range result.Sensitivity {
		fmt.Fprintf(w, "sensitivity %s: base=%s half_diff=%v\n", e.Param, formatNumber(e.BaseValue), e.HalfDiff)
	}

	for _, v := range result.Violations {
		fmt.Fprintf(w, "[%s] t=%d %s: %s\n", v.Severity, v.T, v.Constraint, v.Message)
	}

	return nil
}

func formatSeries(series []float64) []string {
	out := make([]string, len(series))
	for i, v := range series {
		out[i] = formatNumber(v)
	}
	return out
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSummaryKeys(m map[string]runtime.MonteCarloSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
