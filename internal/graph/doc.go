// Package graph defines the property-graph contract the query engine reads
// from, plus the traversal algorithms built on top of it.
//
// A backend implements Graph: identifier lookups, full scans, one-hop
// expansion, index lifecycle and bulk creation. Everything else, including
// filtered scans, global one-hop matching and variable-length path search,
// is provided by package functions that only use the Graph methods. A
// backend may override a default by implementing an optional interface such
// as NodeFilterScanner.
//
// # Direction
//
// Every traversal follows the same rule. OUTGOING yields the canonical
// triples starting at a node. INCOMING yields the reversed triples of the
// relationships ending at it, so the caller always walks "forward" from the
// anchor. BOTH yields the union of the two. A self-loop therefore appears
// once per requested direction: once for OUTGOING, once for INCOMING and
// twice for BOTH. Bulk matching over Relationships applies the identical
// rule.
//
// # Laziness
//
// Scans return seq.Seq values. Nothing is read until the sequence is ranged
// over, and ranging again re-reads the backend.
package graph
