package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pathway/internal/value"
)

// marshalLabels encodes a label list as a JSON array.
func marshalLabels(labels []string) (string, error) {
	if len(labels) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}
	return string(data), nil
}

// unmarshalLabels parses a JSON label array. Returns an empty slice, not
// nil, for unlabeled nodes.
func unmarshalLabels(data string) ([]string, error) {
	labels := []string{}
	if data == "" || data == "[]" {
		return labels, nil
	}
	if err := json.Unmarshal([]byte(data), &labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	return labels, nil
}

// marshalProps encodes properties with their value kinds.
func marshalProps(props value.Map) (string, error) {
	data, err := value.MarshalProperties(props)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return data, nil
}

// unmarshalProps decodes properties written by marshalProps.
func unmarshalProps(data string) (value.Map, error) {
	props, err := value.UnmarshalProperties(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}
