// Package value provides the closed set of runtime values the engine
// computes with.
//
// This package has no internal dependencies. Every other internal package
// imports value; value imports nothing internal, which keeps the value system
// the foundational layer of the engine.
//
// Key design constraints:
//   - Value is a sealed interface: only the variants declared here implement it
//   - Every value reports exactly one Kind
//   - Values are immutable once constructed
//   - Native Go data enters the engine only through Lift
//   - Arithmetic is only defined on the Number sub-interface (Integer, Float)
//
// Consumers are expected to switch exhaustively over the variants:
//
//	switch v := v.(type) {
//	case value.Null:
//	case value.Integer:
//	case value.Float:
//	case value.String:
//	case value.Boolean:
//	case value.List:
//	case value.Map:
//	case value.Date:
//	case value.DateTime:
//	case value.Node:
//	case value.Relationship:
//	}
package value
