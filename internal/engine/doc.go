// Package engine runs graph pattern queries.
//
// The engine is the entry point of pathway: it takes query text (or an
// already analyzed statement), compiles it, and returns a lazy Result.
//
// ARCHITECTURE:
//
// Compilation Pipeline:
//  1. querydoc parses the text and runs semantic analysis
//  2. logical.Plan builds the operator tree with solved markers
//  3. physical.Plan turns every operator into exactly one pipe and checks
//     parameters and calls against the supplied parameters
//  4. optimize rewrites the pipe tree (WithOptimizer(false) skips it)
//
// Compiled plans are immutable. They are cached by the canonical hash of
// the query text, the parameter kinds and the optimizer setting, so one plan
// serves every run with same-typed parameters.
//
// Execution:
// Run returns as soon as the plan exists. Nothing touches the graph until
// the caller iterates Result.Records, pulls Result.Rows, or calls
// Result.Cache. Iteration is single-threaded and depth-first.
//
// ERRORS:
//
// Parse errors (*querydoc.ParseError) and planning errors
// (*logical.PlanError, *physical.PlanError, *physical.UnsupportedPlanError)
// are returned by Run unmodified. Execution errors (*pipe.RuntimeError,
// *procedure.Error, backend errors) surface through the record sequence.
//
// OBSERVABILITY:
//
// Compile stages are logged at Debug and failures at Warn, tagged with the
// query ID. Prometheus collectors count queries by status, plan cache hits
// and misses and emitted rows, and time compilation.
package engine
