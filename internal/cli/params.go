package cli

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathway/internal/value"
)

// parseParams turns repeated --param name=value flags into query
// parameters. The value is read as a YAML flow scalar or collection, so
// "age=30" binds an INTEGER, "name=Alice" a STRING and "ids=[1, 2]" a LIST.
// A value that should stay a string despite looking like a number is quoted:
// code='"007"'.
func parseParams(flags []string) (map[string]value.Value, error) {
	params := make(map[string]value.Value, len(flags))
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("param %q: want name=value", flag)
		}
		name = strings.TrimPrefix(name, "$")

		var native any
		if err := yaml.Unmarshal([]byte(raw), &native); err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		v, err := value.Lift(native)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		params[name] = v
	}
	return params, nil
}

// mergeParams overlays override on base without modifying either.
func mergeParams(base, override map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
