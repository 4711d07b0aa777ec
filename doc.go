// Package pel provides a clean, idiomatic Go API for compiling and running
// Programmable Economic Language models.
//
// PEL is a dimensional-unit DSL for economic and financial models: a model
// declares params (assumptions, with required provenance), time-indexed
// vars (recurrences), and constraints, then compiles to a canonical IR and
// executes under deterministic, Monte Carlo, or sensitivity modes.
//
// Basic usage:
//
//	result, err := pel.Run(src, runtime.Options{Mode: runtime.ModeDeterministic})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Variables["mrr"])
//
// Stateful sessions (reused across repeated Run calls against the same
// compiled model, e.g. sweeping Monte Carlo replication counts):
//
//	session, err := pel.NewSession(src)
//	det, _ := session.Run(runtime.Options{Mode: runtime.ModeDeterministic})
//	mc, _ := session.Run(runtime.Options{Mode: runtime.ModeMonteCarlo, Replications: 1000})
package pel
