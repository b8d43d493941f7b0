package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/value"
)

func TestBuiltinFunctions(t *testing.T) {
	alice := value.Node{
		ID:         "n1",
		Labels:     []string{"Person", "Admin"},
		Properties: value.Map{"name": value.String("Alice"), "age": value.Integer(30)},
	}
	knows := value.Relationship{ID: "r1", StartID: "n1", EndID: "n2", RelType: "KNOWS"}

	tests := []struct {
		name string
		fn   string
		arg  value.Value
		want value.Value
	}{
		{"id of node", "id", alice, value.String("n1")},
		{"id of relationship", "id", knows, value.String("r1")},
		{"labels", "labels", alice, value.List{value.String("Person"), value.String("Admin")}},
		{"type", "type", knows, value.String("KNOWS")},
		{"keys sorted", "keys", alice, value.List{value.String("age"), value.String("name")}},
		{"keys of map", "keys", value.Map{"b": value.Null{}, "a": value.Integer(1)}, value.List{value.String("a"), value.String("b")}},
		{"size of list", "size", value.List{value.Integer(1), value.Integer(2)}, value.Integer(2)},
		{"size counts runes", "size", value.String("h\u00e9llo"), value.Integer(5)},
		{"toUpper", "toUpper", value.String("abc"), value.String("ABC")},
		{"toLower", "toLower", value.String("AbC"), value.String("abc")},
		{"toString int", "toString", value.Integer(42), value.String("42")},
		{"toString float", "toString", value.Float(1), value.String("1.0")},
		{"toInteger string", "toInteger", value.String(" 12 "), value.Integer(12)},
		{"toInteger float string", "toInteger", value.String("3.9"), value.Integer(3)},
		{"toInteger float", "toInteger", value.Float(-2.7), value.Integer(-2)},
		{"toInteger garbage", "toInteger", value.String("twelve"), value.Null{}},
		{"toFloat int", "toFloat", value.Integer(2), value.Float(2)},
		{"toFloat string", "toFloat", value.String("2.5"), value.Float(2.5)},
		{"abs int", "abs", value.Integer(-3), value.Integer(3)},
		{"abs float", "abs", value.Float(-1.5), value.Float(1.5)},
		{"null propagates", "size", value.Null{}, value.Null{}},
	}

	r := Builtins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CallFunction(tt.fn, []value.Value{tt.arg})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinFunctionTypeErrors(t *testing.T) {
	tests := []struct {
		fn  string
		arg value.Value
	}{
		{"id", value.Integer(1)},
		{"labels", value.Relationship{ID: "r"}},
		{"type", value.Node{ID: "n"}},
		{"keys", value.String("x")},
		{"size", value.Integer(3)},
		{"toUpper", value.Integer(3)},
		{"toString", value.List{}},
		{"abs", value.String("-1")},
	}

	r := Builtins()
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			_, err := r.CallFunction(tt.fn, []value.Value{tt.arg})
			require.Error(t, err)
			assert.True(t, IsArgumentTypeError(err), "got %v", err)
		})
	}
}
