package parser

const (
	// MaxNestingDepth limits expression nesting to prevent stack overflow.
	MaxNestingDepth = 100

	// MaxTokenCount limits total tokens to prevent "token bomb" inputs.
	MaxTokenCount = 20000

	// MaxErrors caps the number of diagnostics collected before panic-mode
	// recovery gives up and returns what it has (spec.md §4.2).
	MaxErrors = 20
)
