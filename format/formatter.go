// Package format renders a pel.Result for human or machine consumption:
// Markdown reports, plain text summaries, and JSON for programmatic
// integration. Grounded on go-calcmark's format package (Formatter
// interface + registry-by-extension dispatch), generalized from
// CalcMark's document-block model to PEL's run results.
package format

import (
	"io"

	"github.com/pel-lang/pel"
)

// Formatter renders a pel.Result to w. All formatters implement this
// interface.
type Formatter interface {
	// Format writes the rendered result to w.
	Format(w io.Writer, result *pel.Result, opts Options) error

	// Extensions returns the file extensions this formatter handles.
	Extensions() []string
}

// Options controls formatter behavior.
type Options struct {
	Verbose bool // print each variable's full per-timestep series, not just its final value
}
