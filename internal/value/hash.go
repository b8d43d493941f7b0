package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Domain prefixes for content-addressed keys.
// Version suffix enables future algorithm migration.
const (
	DomainPlan = "pathway/plan/v1"
	DomainRow  = "pathway/row/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of the canonical encoding of vs under domain.
// Equal inputs always produce equal keys, across processes and restarts.
func Hash(domain string, vs ...Value) (string, error) {
	data, err := MarshalCanonical(List(vs))
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// GroupKey returns the key under which vs are grouped by DISTINCT and
// aggregation. Whole floats are keyed as integers so that values Equal
// treats as the same land in one group.
func GroupKey(vs ...Value) (string, error) {
	normalized := make(List, len(vs))
	for i, v := range vs {
		normalized[i] = normalizeNumbers(v)
	}
	return Hash(DomainRow, normalized...)
}

func normalizeNumbers(v Value) Value {
	switch val := v.(type) {
	case Float:
		f := float64(val)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return Integer(int64(f))
		}
		return val
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = normalizeNumbers(elem)
		}
		return out
	case Map:
		out := make(Map, len(val))
		for k, elem := range val {
			out[k] = normalizeNumbers(elem)
		}
		return out
	default:
		return v
	}
}
