// Package querydoc turns query text and YAML query documents into an
// ast.Statement plus its ast.SemanticState.
//
// The text syntax is a small Cypher subset:
//
//	MATCH (a:Person {name: $name})-[r:KNOWS*1..2]->(b)
//	WHERE b.age > 30 AND NOT b:Admin
//	CREATE (b)-[:SEEN]->(:Visit {at: 1})
//	RETURN DISTINCT b.name AS friend, count(*) ORDER BY friend DESC SKIP 1 LIMIT 10
//
// A query document wraps the text with a name, a description and default
// parameters:
//
//	name: friends of alice
//	query: |
//	  MATCH (a:Person {name: $name})-[:KNOWS]->(b)
//	  RETURN b.name AS friend
//	params:
//	  name: Alice
//
// Syntax problems are reported as *ParseError with a 1-based line and
// column. Statements that parse but do not make sense (undefined variables,
// a RETURN in the middle) fail with *ast.SemanticError.
package querydoc
