package pel

import (
	"github.com/google/uuid"

	"github.com/pel-lang/pel/runtime"
	"github.com/pel-lang/pel/typecheck"
)

// Result wraps a runtime.Result with a run identifier (so two runs of the
// same model, e.g. two Monte Carlo sweeps taken minutes apart, can be told
// apart in stored results.json output or a calibration report) and the
// type-checker diagnostics collected while compiling the model, mirroring
// go-calcmark's calcmark.Result (Value/AllValues/Diagnostics) generalized to
// PEL's execution-mode-shaped output.
type Result struct {
	RunID string `json:"run_id"`
	*runtime.Result
	Diagnostics []typecheck.Diagnostic `json:"diagnostics,omitempty"`
}

// newRunID mints a fresh run identifier via google/uuid, the same library
// the teacher's go.mod already carries for this purpose.
func newRunID() string {
	return uuid.New().String()
}
