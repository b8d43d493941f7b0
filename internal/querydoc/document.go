package querydoc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/value"
)

// Document is a query stored as YAML together with its defaults.
type Document struct {
	Name        string
	Description string

	// Query is the query text exactly as written.
	Query string

	Statement *ast.Statement
	State     *ast.SemanticState

	// Params are default parameter values; callers may override them.
	Params map[string]value.Value
}

type rawDocument struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Query       yaml.Node `yaml:"query"`
	Params      yaml.Node `yaml:"params"`
}

// LoadDocument reads and parses the query document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}
	doc, err := defaultParser.ParseDocument(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Source == "" {
			pe.Source = path
		}
		return nil, err
	}
	return doc, nil
}

// ParseDocument parses a YAML query document with the built-in registry.
func ParseDocument(data []byte) (*Document, error) {
	return defaultParser.ParseDocument(data)
}

// ParseDocument parses a YAML query document. Positions in a *ParseError
// refer to the YAML source, not to the embedded query text.
func (p *Parser) ParseDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, yamlError(err)
	}
	if len(root.Content) == 0 {
		return nil, &ParseError{Line: 1, Column: 1, Message: "empty query document"}
	}
	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: body.Line, Column: body.Column, Message: "query document must be a mapping"}
	}

	var raw rawDocument
	if err := body.Decode(&raw); err != nil {
		return nil, yamlError(err)
	}
	if raw.Query.Kind != yaml.ScalarNode || strings.TrimSpace(raw.Query.Value) == "" {
		return nil, &ParseError{Line: body.Line, Column: body.Column, Message: "query document needs a non-empty query"}
	}

	doc := &Document{
		Name:        raw.Name,
		Description: raw.Description,
		Query:       raw.Query.Value,
		Params:      map[string]value.Value{},
	}
	stmt, state, err := p.Parse(raw.Query.Value)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Line, pe.Column = shiftPos(data, &raw.Query, pe.Line, pe.Column)
		}
		return nil, err
	}
	doc.Statement, doc.State = stmt, state

	if raw.Params.Kind != 0 {
		params, err := decodeParams(&raw.Params)
		if err != nil {
			return nil, err
		}
		doc.Params = params
	}
	return doc, nil
}

func decodeParams(n *yaml.Node) (map[string]value.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: n.Line, Column: n.Column, Message: "params must be a mapping"}
	}
	out := make(map[string]value.Value, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		var native any
		if err := valNode.Decode(&native); err != nil {
			return nil, yamlError(err)
		}
		v, err := value.Lift(native)
		if err != nil {
			return nil, &ParseError{Line: valNode.Line, Column: valNode.Column, Message: fmt.Sprintf("param %s: %v", keyNode.Value, err)}
		}
		out[keyNode.Value] = v
	}
	return out, nil
}

// shiftPos maps a position inside a scalar's text to the YAML source.
// Block scalars start on the line after their indicator, indented; flow
// scalars start at the node itself.
func shiftPos(src []byte, n *yaml.Node, line, col int) (int, int) {
	switch {
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		target := n.Line + line
		return target, indentOf(src, target) + col
	case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		if line == 1 {
			return n.Line, n.Column + col
		}
		return n.Line + line - 1, col
	default:
		if line == 1 {
			return n.Line, n.Column + col - 1
		}
		return n.Line + line - 1, col
	}
}

// indentOf counts the leading spaces of the 1-based line in src.
func indentOf(src []byte, line int) int {
	lines := strings.Split(string(src), "\n")
	if line < 1 || line > len(lines) {
		return 0
	}
	l := lines[line-1]
	return len(l) - len(strings.TrimLeft(l, " "))
}

// yamlError converts yaml.v3 errors, which carry "line N:" prefixes, into
// a *ParseError.
func yamlError(err error) error {
	var te *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")
	line := 0
	if _, scanErr := fmt.Sscanf(msg, "line %d:", &line); scanErr == nil {
		if i := strings.Index(msg, ":"); i >= 0 {
			msg = strings.TrimSpace(msg[i+1:])
		}
	}
	return &ParseError{Line: line, Column: 0, Message: msg}
}
