package format

import (
	"encoding/json"
	"io"

	"github.com/pel-lang/pel"
)

// JSONFormatter renders a pel.Result as JSON for programmatic consumption.
// Grounded on go-calcmark's JSONFormatter, generalized to encode the
// already JSON-tagged runtime.Result/pel.Result shapes directly rather than
// building a parallel JSONDocument struct, since PEL's result types (unlike
// CalcMark's document-block tree) are already output-shaped.
type JSONFormatter struct{}

// Extensions returns the file extensions handled by this formatter.
func (f *JSONFormatter) Extensions() []string { return []string{".json"} }

// Format writes result as indented JSON to w.
func (f *JSONFormatter) Format(w io.Writer, result *pel.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
