package value

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// InvalidValueError reports a native input that does not map to any value
// variant. It is fatal to the single conversion and never silently coerced.
type InvalidValueError struct {
	// Path locates the offending element inside nested lists and maps,
	// e.g. "[2].tags[0]". Empty for top-level values.
	Path string

	// GoType is the dynamic Go type that could not be lifted.
	GoType string

	// Reason optionally refines the message (e.g. integer overflow).
	Reason string
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	msg := fmt.Sprintf("invalid value: unsupported native type %s", e.GoType)
	if e.Reason != "" {
		msg = fmt.Sprintf("invalid value: %s (%s)", e.Reason, e.GoType)
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	return msg
}

// IsInvalidValue returns true if err is, or wraps, an InvalidValueError.
func IsInvalidValue(err error) bool {
	var ive *InvalidValueError
	return errors.As(err, &ive)
}

// Lift converts a native Go value into a Value. It is the single entry point
// through which external data enters the engine.
//
// Supported shapes:
//   - nil → Null
//   - Value → returned unchanged (Lift is idempotent)
//   - bool, string
//   - all signed and unsigned integer kinds (uint values above MaxInt64 fail)
//   - float32, float64
//   - time.Time → DateTime
//   - *big.Int that fits in int64
//   - slices and arrays → List (element-wise), except []byte
//   - maps with string keys → Map (element-wise)
//   - neo4j driver values: dbtype.Node, dbtype.Relationship, dbtype.Date,
//     dbtype.LocalDateTime
//
// Everything else fails with *InvalidValueError.
func Lift(native any) (Value, error) {
	return lift(native, "")
}

// MustLift is Lift for values known to be valid, such as test fixtures.
// It panics on failure.
func MustLift(native any) Value {
	v, err := Lift(native)
	if err != nil {
		panic(err)
	}
	return v
}

func lift(native any, path string) (Value, error) {
	switch v := native.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Boolean(v), nil
	case string:
		return String(v), nil
	case int:
		return Integer(v), nil
	case int8:
		return Integer(v), nil
	case int16:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return Integer(v), nil
	case uint:
		return liftUnsigned(uint64(v), "uint", path)
	case uint8:
		return Integer(v), nil
	case uint16:
		return Integer(v), nil
	case uint32:
		return Integer(v), nil
	case uint64:
		return liftUnsigned(v, "uint64", path)
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return NewDateTime(v), nil
	case *big.Int:
		if v == nil {
			return Null{}, nil
		}
		if !v.IsInt64() {
			return nil, &InvalidValueError{Path: path, GoType: "*big.Int", Reason: "integer out of int64 range"}
		}
		return Integer(v.Int64()), nil
	case []byte:
		return nil, &InvalidValueError{Path: path, GoType: "[]byte"}
	case []any:
		return liftList(len(v), func(i int) any { return v[i] }, path)
	case map[string]any:
		out := make(Map, len(v))
		for k, elem := range v {
			lifted, err := lift(elem, joinKey(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = lifted
		}
		return out, nil
	case dbtype.Node:
		return liftDriverNode(v, path)
	case dbtype.Relationship:
		return liftDriverRelationship(v, path)
	case dbtype.Date:
		return NewDate(time.Time(v)), nil
	case dbtype.LocalDateTime:
		t := time.Time(v)
		return NewDateTime(time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)), nil
	default:
		return liftReflect(native, path)
	}
}

func liftUnsigned(u uint64, goType, path string) (Value, error) {
	if u > math.MaxInt64 {
		return nil, &InvalidValueError{Path: path, GoType: goType, Reason: "integer out of int64 range"}
	}
	return Integer(int64(u)), nil
}

func liftList(n int, at func(int) any, path string) (Value, error) {
	out := make(List, n)
	for i := 0; i < n; i++ {
		lifted, err := lift(at(i), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		out[i] = lifted
	}
	return out, nil
}

// liftReflect handles typed slices and string-keyed maps ([]string,
// map[string]int, ...) that the fast path above does not enumerate.
func liftReflect(native any, path string) (Value, error) {
	rv := reflect.ValueOf(native)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null{}, nil
		}
		return liftList(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, path)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &InvalidValueError{Path: path, GoType: rv.Type().String(), Reason: "map keys must be strings"}
		}
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			lifted, err := lift(iter.Value().Interface(), joinKey(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = lifted
		}
		return out, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return lift(rv.Elem().Interface(), path)
	default:
		return nil, &InvalidValueError{Path: path, GoType: fmt.Sprintf("%T", native)}
	}
}

func liftDriverNode(n dbtype.Node, path string) (Value, error) {
	props, err := liftProps(n.Props, path)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(n.Labels))
	copy(labels, n.Labels)
	return Node{
		ID:         driverID(n.ElementId, n.Id),
		Labels:     labels,
		Properties: props,
	}, nil
}

func liftDriverRelationship(r dbtype.Relationship, path string) (Value, error) {
	props, err := liftProps(r.Props, path)
	if err != nil {
		return nil, err
	}
	return Relationship{
		ID:         driverID(r.ElementId, r.Id),
		StartID:    driverID(r.StartElementId, r.StartId),
		EndID:      driverID(r.EndElementId, r.EndId),
		RelType:    r.Type,
		Properties: props,
	}, nil
}

func liftProps(props map[string]any, path string) (Map, error) {
	out := make(Map, len(props))
	for k, v := range props {
		lifted, err := lift(v, joinKey(path, k))
		if err != nil {
			return nil, err
		}
		out[k] = lifted
	}
	return out, nil
}

// driverID prefers the element ID introduced in Neo4j 5 and falls back to the
// legacy numeric ID.
func driverID(elementID string, legacy int64) ID {
	if elementID != "" {
		return ID(elementID)
	}
	return ID(strconv.FormatInt(legacy, 10))
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Native converts a Value back into plain Go data for result rows.
//
//	Null → nil, Integer → int64, Float → float64, String → string,
//	Boolean → bool, List → []any, Map → map[string]any,
//	Date/DateTime → time.Time (UTC), Node/Relationship → themselves.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Integer:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Boolean:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	case Date:
		return val.Time()
	case DateTime:
		return val.Time()
	case Node:
		return val
	case Relationship:
		return val
	default:
		return nil
	}
}
