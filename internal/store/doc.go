// Package store provides a SQLite-backed graph.Graph.
//
// The store keeps nodes, relationships and declared property indexes in
// four tables:
//   - nodes: ID, label list and tagged-JSON properties
//   - node_labels: one row per (node, label), the label index
//   - relationships: typed edges with tagged-JSON properties
//   - property_indexes / index_entries: declared indexes and their buckets
//
// # Critical Patterns
//
// Deterministic Scans
//   - Every scan orders by the insertion sequence (seq), never by ID
//   - Results therefore match the in-memory backend element for element
//
// Snapshot Scans
//   - A scan runs its query when iteration starts and materializes the rows
//     before yielding the first element
//   - No cursor is held open while the caller works, so nested scans and
//     CREATE inside a running MATCH never block on the single connection
//
// Typed Properties
//   - Properties are stored with value.MarshalProperties so Integer and
//     Float, Date and DateTime survive the round trip unchanged
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
