package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/value"
)

func TestLabelsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"none", nil, "[]"},
		{"one", []string{"Person"}, `["Person"]`},
		{"order kept", []string{"Person", "Admin"}, `["Person","Admin"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := marshalLabels(tt.labels)
			require.NoError(t, err)
			assert.Equal(t, tt.want, data)

			back, err := unmarshalLabels(data)
			require.NoError(t, err)
			assert.NotNil(t, back)
			assert.Equal(t, len(tt.labels), len(back))
		})
	}
}

func TestUnmarshalLabelsRejectsGarbage(t *testing.T) {
	_, err := unmarshalLabels("{")
	assert.Error(t, err)
}

func TestPropsKeepKinds(t *testing.T) {
	props := value.Map{
		"i": value.Integer(1),
		"f": value.Float(1),
		"s": value.String("1"),
		"n": value.Null{},
	}
	data, err := marshalProps(props)
	require.NoError(t, err)

	back, err := unmarshalProps(data)
	require.NoError(t, err)
	assert.Equal(t, props, back)

	empty, err := unmarshalProps("{}")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
