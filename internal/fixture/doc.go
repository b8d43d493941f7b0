// Package fixture loads graph definitions into a graph.Graph.
//
// A fixture lists nodes under local keys, relationships between those
// keys, and optional property indexes. Two source formats are accepted:
//
//   - CUE (.cue): unified with the embedded #Graph schema, so a misspelled
//     field or a non-string label fails before anything is written
//   - YAML (.yaml, .yml): the same structure, checked by Validate
//
// Example (CUE):
//
//	name: "social"
//	nodes: [
//		{key: "alice", labels: ["Person"], properties: {name: "Alice", age: 30}},
//		{key: "bob", labels: ["Person"], properties: {name: "Bob", age: 25}},
//	]
//	relationships: [{type: "KNOWS", from: "alice", to: "bob"}]
//
// CUE distinguishes 30 (Integer) from 30.0 (Float); YAML does the same and
// additionally turns timestamps into DateTime values.
//
// Apply writes a fixture with one graph.CreateElements call, so a fixture
// is created entirely or not at all.
package fixture
