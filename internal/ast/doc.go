// Package ast defines the parsed form of a graph pattern query.
//
// The engine never parses text itself. A parser (see package querydoc)
// produces a Statement and runs Analyze to obtain the SemanticState the
// planners consume. Both are immutable once built.
//
// A Statement is a sequence of clauses:
//
//	MATCH (p:Person)-[:KNOWS]->(q:Person) WHERE p.name = "Alice"
//	RETURN p, q
//
// Clause and Expr are sealed interfaces using the marker method pattern, so
// consumers can switch over them exhaustively.
package ast
