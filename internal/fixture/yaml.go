package fixture

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/value"
)

type yamlFixture struct {
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	Nodes         []yamlNode         `yaml:"nodes"`
	Relationships []yamlRelationship `yaml:"relationships"`
	Indexes       []yamlIndex        `yaml:"indexes"`
}

type yamlNode struct {
	Key        string         `yaml:"key"`
	Labels     []string       `yaml:"labels"`
	Properties map[string]any `yaml:"properties"`
}

type yamlRelationship struct {
	Type       string         `yaml:"type"`
	From       string         `yaml:"from"`
	To         string         `yaml:"to"`
	Properties map[string]any `yaml:"properties"`
}

type yamlIndex struct {
	Label    string `yaml:"label"`
	Property string `yaml:"property"`
}

// ParseYAML decodes a YAML fixture. Unknown fields are rejected.
func ParseYAML(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw yamlFixture
	if err := dec.Decode(&raw); err != nil {
		return nil, yamlError(err)
	}

	f := &Fixture{Name: raw.Name, Description: raw.Description}
	for i, n := range raw.Nodes {
		props, err := liftProperties(n.Properties)
		if err != nil {
			return nil, &Error{Field: fmt.Sprintf("nodes[%d].properties", i), Message: err.Error()}
		}
		f.Nodes = append(f.Nodes, NodeDef{Key: n.Key, Labels: n.Labels, Properties: props})
	}
	for i, r := range raw.Relationships {
		props, err := liftProperties(r.Properties)
		if err != nil {
			return nil, &Error{Field: fmt.Sprintf("relationships[%d].properties", i), Message: err.Error()}
		}
		f.Relationships = append(f.Relationships, RelationshipDef{Type: r.Type, From: r.From, To: r.To, Properties: props})
	}
	for _, idx := range raw.Indexes {
		f.Indexes = append(f.Indexes, graph.Index{Label: idx.Label, Property: idx.Property})
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// liftProperties converts decoded YAML values, dropping nulls.
func liftProperties(native map[string]any) (value.Map, error) {
	props := make(value.Map, len(native))
	for k, raw := range native {
		v, err := value.Lift(raw)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", k, err)
		}
		if _, isNull := v.(value.Null); isNull {
			continue
		}
		props[k] = v
	}
	return props, nil
}

// yamlError converts yaml.v3 errors, which carry "line N:" prefixes.
func yamlError(err error) error {
	var te *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	e := &Error{Field: "yaml", Message: msg}
	var line int
	if _, scanErr := fmt.Sscanf(msg, "yaml: line %d:", &line); scanErr == nil {
		e.Line = line
	} else if _, scanErr := fmt.Sscanf(msg, "line %d:", &line); scanErr == nil {
		e.Line = line
	}
	return e
}
