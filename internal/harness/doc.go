// Package harness runs query conformance scenarios against a real engine.
//
// A scenario is a YAML file naming a graph fixture, a backend and an ordered
// list of query steps. Every step runs through engine.Run on the same graph,
// so CREATE steps are visible to the steps after them. Each step declares
// what it expects:
//
//	name: friends_of_alice
//	description: Alice knows exactly one person
//	fixture: ../fixtures/social.cue
//	backend: memory
//	steps:
//	  - name: friends
//	    query: |
//	      MATCH (p:Person {name: $name})-[:KNOWS]->(q) RETURN q.name AS friend
//	    params: {name: Alice}
//	    expect:
//	      columns: [friend]
//	      rows:
//	        - {friend: Bob}
//	assertions:
//	  - type: node_count
//	    label: Person
//	    count: 3
//
// # Matching
//
// Expected values are lifted with value.Lift and compared with value.Equal,
// so null equals null and 30 does not equal 30.0. An expected map matches a
// node or relationship when every listed property is present and equal.
// Rows are compared in order unless the step sets unordered.
//
// # Determinism
//
// Each run gets a fresh graph whose element IDs come from a sequential
// generator and an engine whose query IDs are fixed. Two runs of the same
// scenario therefore produce identical plans and tables, which is what the
// golden snapshots written by RunWithGolden rely on.
//
// # Golden Files
//
// Golden files live in testdata/golden/{scenario}.golden. Regenerate them
// with:
//
//	go test ./internal/harness -update
package harness
