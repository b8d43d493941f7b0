// Package physical turns logical operator trees into executable pipes.
//
// Planning is a single bottom-up pass with one pipe per logical operator:
//
//	logical.Start            → pipe.Start
//	logical.PatternScan      → pipe.PatternScan
//	logical.Filter           → pipe.Filter
//	logical.Expand           → pipe.Expand
//	logical.VarExpand        → pipe.VarExpand
//	logical.CartesianProduct → pipe.CartesianProduct
//	logical.Project          → pipe.Project
//	logical.Aggregate        → pipe.Aggregate
//	logical.Select           → pipe.Select
//	logical.Distinct         → pipe.Distinct
//	logical.OrderBy          → pipe.OrderBy
//	logical.Skip             → pipe.Skip
//	logical.Limit            → pipe.Limit
//	logical.Create           → pipe.Create
//
// Operators without a case, and shapes a pipe cannot run (a scan over more
// than one hop, an Expand carrying a hop range), fail with
// *UnsupportedPlanError. The planner never touches a graph. It does check
// every expression against the planning Context: each referenced parameter
// must be supplied, SKIP and LIMIT parameters must be integers, and every
// function call must name a registered function with a matching argument
// count. Those failures are *PlanError.
package physical
