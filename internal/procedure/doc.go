// Package procedure is the catalog of callable functions and aggregates.
//
// Every callable declares a Signature. Registry.Call validates a call
// against it before the body runs: the argument count first
// (WRONG_NUMBER_OF_ARGUMENTS), then each argument's kind
// (WRONG_ARGUMENT_TYPE). Null satisfies every declared kind and KindAny
// accepts every value.
//
// Aggregates accumulate one value per input row through an Aggregator and
// produce their result once, when the aggregation scope ends. Their inputs
// are validated on every Collect, so an aggregate call with the wrong
// argument count fails before any value is accumulated.
package procedure
