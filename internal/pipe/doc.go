// Package pipe executes physical plans.
//
// A Pipe produces a lazy, restartable sequence of Records. Pipes hold
// references to their already-built children and no mutable state; all
// per-execution state (seen sets, sort buffers, aggregation groups) lives
// inside the sequence and is rebuilt on every iteration. Parents pull from
// children on demand, single-threaded and depth-first, so nothing runs
// until the consumer asks for the first record.
//
// Expression evaluation follows three-valued logic: comparisons and
// arithmetic involving null yield null, AND/OR/XOR follow the Kleene
// tables, and Filter keeps a row only when its predicate is true.
package pipe
