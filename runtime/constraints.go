package runtime

import "github.com/pel-lang/pel/ast"

// severityRank orders constraint severities per spec.md §4.6:
// `info < warning < error < fatal`.
var severityRank = map[ast.ConstraintSeverity]int{
	ast.SeverityInfo:    0,
	ast.SeverityWarning: 1,
	ast.SeverityError:   2,
	ast.SeverityFatal:   3,
}

// Violation records one constraint failure observed during a run.
type Violation struct {
	Constraint  string                 `json:"constraint"`
	T           int                    `json:"t"`
	Replication int                    `json:"replication"`
	Severity    ast.ConstraintSeverity `json:"severity"`
	Message     string                 `json:"message"`
}

// ConstraintLog accumulates every Violation observed across a replication's
// timesteps, per spec.md §4.6 ("lower severities are recorded in
// ConstraintLog and continue").
type ConstraintLog []Violation

// Add appends v to the log.
func (l *ConstraintLog) Add(v Violation) {
	*l = append(*l, v)
}

// Failed reports whether the log contains any violation severe enough to
// mark the owning run's status "failed" (error or fatal).
func (l ConstraintLog) Failed() bool {
	for _, v := range l {
		if isFailing(v.Severity) {
			return true
		}
	}
	return false
}

// isFatal reports whether v should abort its replication immediately.
func isFatal(sev ast.ConstraintSeverity) bool {
	return sev == ast.SeverityFatal
}

// isFailing reports whether v should mark the run's overall status failed
// without aborting execution (spec.md §4.6: "An `error` constraint at any
// `t` causes the run's `status` to be `failed` but execution continues").
func isFailing(sev ast.ConstraintSeverity) bool {
	return severityRank[sev] >= severityRank[ast.SeverityError]
}
