package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// taggedValue is the storage envelope used by MarshalTagged. Unlike the
// canonical encoding it is reversible: the kind tag restores the exact
// variant on the way back.
type taggedValue struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// MarshalTagged encodes a property value for storage. Nodes and
// relationships are not storable as properties and are rejected.
func MarshalTagged(v Value) ([]byte, error) {
	tv, err := toTagged(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tv)
}

func toTagged(v Value) (taggedValue, error) {
	kind := KindOf(v)
	tv := taggedValue{T: kind.String()}
	var payload any
	switch val := v.(type) {
	case nil, Null:
		return tv, nil
	case Integer:
		payload = int64(val)
	case Float:
		payload = float64(val)
	case String:
		payload = string(val)
	case Boolean:
		payload = bool(val)
	case Date:
		payload = int64(val)
	case DateTime:
		payload = int64(val)
	case List:
		elems := make([]taggedValue, len(val))
		for i, elem := range val {
			t, err := toTagged(elem)
			if err != nil {
				return tv, fmt.Errorf("list[%d]: %w", i, err)
			}
			elems[i] = t
		}
		payload = elems
	case Map:
		entries := make(map[string]taggedValue, len(val))
		for k, elem := range val {
			t, err := toTagged(elem)
			if err != nil {
				return tv, fmt.Errorf("map[%q]: %w", k, err)
			}
			entries[k] = t
		}
		payload = entries
	default:
		return tv, fmt.Errorf("%s values cannot be stored as properties", kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return tv, err
	}
	tv.V = raw
	return tv, nil
}

// UnmarshalTagged decodes a value written by MarshalTagged.
// Integers are decoded through json.Number to avoid float64 precision loss
// for values above 2^53.
func UnmarshalTagged(data []byte) (Value, error) {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return nil, fmt.Errorf("unmarshal tagged value: %w", err)
	}
	return fromTagged(tv)
}

func fromTagged(tv taggedValue) (Value, error) {
	kind, ok := ParseKind(tv.T)
	if !ok {
		return nil, fmt.Errorf("unknown value tag %q", tv.T)
	}
	switch kind {
	case KindNull:
		return Null{}, nil
	case KindInteger, KindDate, KindDateTime:
		n, err := decodeInt(tv.V)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindDate:
			return Date(n), nil
		case KindDateTime:
			return DateTime(n), nil
		}
		return Integer(n), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(tv.V, &f); err != nil {
			return nil, err
		}
		return Float(f), nil
	case KindString:
		var s string
		if err := json.Unmarshal(tv.V, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(tv.V, &b); err != nil {
			return nil, err
		}
		return Boolean(b), nil
	case KindList:
		var elems []taggedValue
		if err := json.Unmarshal(tv.V, &elems); err != nil {
			return nil, err
		}
		out := make(List, len(elems))
		for i, elem := range elems {
			v, err := fromTagged(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case KindMap:
		var entries map[string]taggedValue
		if err := json.Unmarshal(tv.V, &entries); err != nil {
			return nil, err
		}
		out := make(Map, len(entries))
		for k, elem := range entries {
			v, err := fromTagged(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s values cannot be decoded from storage", kind)
	}
}

func decodeInt(raw json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return 0, fmt.Errorf("decode integer: %w", err)
	}
	return n.Int64()
}

// MarshalProperties encodes a property map as a JSON object of tagged values.
func MarshalProperties(props Map) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	entries := make(map[string]json.RawMessage, len(props))
	for k, v := range props {
		data, err := MarshalTagged(v)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", k, err)
		}
		entries[k] = data
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalProperties decodes a property map written by MarshalProperties.
func UnmarshalProperties(data string) (Map, error) {
	if data == "" || data == "{}" {
		return Map{}, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	out := make(Map, len(entries))
	for k, raw := range entries {
		v, err := UnmarshalTagged(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
