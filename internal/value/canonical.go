package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces a deterministic JSON encoding of v for hashing.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed keys (plan cache keys, DISTINCT and grouping keys).
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785)
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats always carry a fraction or exponent so Integer(1) and Float(1)
//     encode differently
//  5. Kinds without a JSON counterpart are wrapped: {"$date":ms},
//     {"$datetime":ms}, {"$node":id}, {"$rel":id}
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		return writeCanonicalFloat(buf, float64(val))
	case String:
		return writeCanonicalString(buf, string(val))
	case Boolean:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Date:
		return writeTagged(buf, "$date", Integer(val))
	case DateTime:
		return writeTagged(buf, "$datetime", Integer(val))
	case Node:
		return writeTagged(buf, "$node", String(val.ID))
	case Relationship:
		return writeTagged(buf, "$rel", String(val.ID))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		keys := canonicalKeys(val)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value for canonical JSON: %T", v)
	}
	return nil
}

func writeTagged(buf *bytes.Buffer, tag string, v Value) error {
	buf.WriteString(`{"` + tag + `":`)
	if err := writeCanonical(buf, v); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	switch s {
	case "NaN", "+Inf", "-Inf":
		// Not representable in JSON; tag them so they still hash uniquely.
		return writeTagged(buf, "$float", String(s))
	}
	if !bytes.ContainsAny([]byte(s), ".e") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}

// writeCanonicalString writes an NFC-normalized JSON string without HTML
// escaping. Line and paragraph separators are emitted
// literally per RFC 8785.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes that
// encoding/json emits.
// An escape preceded by an odd number of backslashes is literal text and is
// kept as is.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

// canonicalKeys returns keys in RFC 8785 order (UTF-16 code units).
// CRITICAL: Go's string comparison uses UTF-8 which produces a DIFFERENT
// order for characters outside the BMP.
func canonicalKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
