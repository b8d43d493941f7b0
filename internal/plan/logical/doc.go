// Package logical turns an analyzed statement into a tree of logical
// operators.
//
// ARCHITECTURE:
//
//	[ast.Statement + ast.SemanticState] → logical.Plan → [Operator tree] → physical.Plan
//
// The planner is pure: it never touches a graph, never evaluates an
// expression and never resolves a parameter value. Its output states what
// has to happen, the physical planner decides how.
//
// SEALED OPERATORS:
//
// Operator is sealed with a marker method so the physical planner can map
// every variant with one exhaustive type switch:
//
//	switch op := op.(type) {
//	case *logical.PatternScan:
//	case *logical.Filter:
//	...
//	}
//
// SOLVED MARKERS:
//
// Every operator reports Solved: the fields it binds, the predicates it
// already enforces and the pattern pieces it matched. Inline property maps
// such as (a {name: $n}) are enforced by the scan or expand that binds a,
// so a WHERE conjunct "a.name = $n" is recognized as solved and is not
// planned a second time.
//
// MATCH PLANNING:
//
// Each comma-separated pattern part is planned left to right. A part with
// no bound node starts with a PatternScan of its first hop (or of its only
// node); a part that touches a bound node expands outward from it instead.
// Unconnected parts are combined with a CartesianProduct. WHERE conjuncts
// are placed on the earliest operator that binds all of their variables.
// Relationship variables bound within one MATCH never bind the same
// relationship twice in a row.
package logical
