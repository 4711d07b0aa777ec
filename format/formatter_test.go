package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pel-lang/pel"
	"github.com/pel-lang/pel/runtime"
)

func sampleResult(t *testing.T) *pel.Result {
	t.Helper()
	src := `model Growth {
  param seed_mrr: Currency<USD> = $1000 { source: "a", method: "b", confidence: 0.9 }
  param growth: Fraction = 0.10 { source: "a", method: "b", confidence: 0.9 }
  var mrr[t]: Currency<USD> = if t == 0 then seed_mrr else mrr[t-1] * (1 + growth)
}`
	result, err := pel.Run(src, runtime.Options{Mode: runtime.ModeDeterministic, Timesteps: 3})
	if err != nil {
		t.Fatalf("pel.Run: %v", err)
	}
	return result
}

func TestTextFormatterIncludesFinalValue(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).Format(&buf, sampleResult(t), Options{}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(buf.String(), "mrr: 1,210") {
		t.Errorf("expected a formatted final mrr value, got %q", buf.String())
	}
}

func TestJSONFormatterProducesValidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sampleResult(t), Options{}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(buf.String(), `"run_id"`) {
		t.Errorf("expected run_id in JSON output, got %q", buf.String())
	}
}

func TestMarkdownFormatterProducesTable(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownFormatter{}).Format(&buf, sampleResult(t), Options{}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "| variable | final value |") {
		t.Errorf("expected a Markdown table header, got %q", out)
	}
	if !strings.Contains(out, "mrr") {
		t.Errorf("expected mrr in the report, got %q", out)
	}
}
