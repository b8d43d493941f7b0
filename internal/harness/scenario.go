package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by Scenario.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Scenario defines a query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the CUE or YAML graph fixture loaded before the first step.
	// Relative paths are resolved against the scenario file location.
	// Empty means the scenario starts from an empty graph.
	Fixture string `yaml:"fixture,omitempty"`

	// Backend selects the graph implementation: "memory" (default) or
	// "sqlite", which runs against a throwaway database file.
	Backend string `yaml:"backend,omitempty"`

	// Steps are executed in order on the same graph.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final graph state after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query and its expected outcome.
type Step struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`

	// Params are lifted with value.Lift before the query runs.
	Params map[string]any `yaml:"params,omitempty"`

	// Optimize toggles the plan optimizer for this step. Default true.
	Optimize *bool `yaml:"optimize,omitempty"`

	Expect Expect `yaml:"expect"`
}

// optimize resolves the Optimize default.
func (s Step) optimize() bool {
	return s.Optimize == nil || *s.Optimize
}

// Expect lists the checks applied to a step. Unset fields are not checked.
type Expect struct {
	// Columns is the exact, ordered list of result columns.
	Columns []string `yaml:"columns,omitempty"`

	// Rows are the expected records. Only the listed columns are compared.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Unordered compares Rows as a multiset.
	Unordered bool `yaml:"unordered,omitempty"`

	// Count is the expected number of records.
	Count *int `yaml:"count,omitempty"`

	// Error is a substring of the expected error. A step with Error set
	// fails when the query succeeds.
	Error string `yaml:"error,omitempty"`

	// PlanContains are substrings of the rendered physical plan.
	PlanContains []string `yaml:"plan_contains,omitempty"`

	// Stats are the expected mutation counters.
	Stats *StatsExpect `yaml:"stats,omitempty"`
}

// StatsExpect mirrors pipe.Stats.
type StatsExpect struct {
	NodesCreated         int `yaml:"nodes_created"`
	RelationshipsCreated int `yaml:"relationships_created"`
}

// Assertion validates final graph state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": Count nodes, optionally only those carrying Label
	// - "relationship_count": Count relationships, optionally only of RelType
	Type string `yaml:"type"`

	// Label restricts node_count.
	Label string `yaml:"label,omitempty"`

	// RelType restricts relationship_count.
	RelType string `yaml:"rel_type,omitempty"`

	// Count is the expected number of elements.
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertNodeCount         = "node_count"
	AssertRelationshipCount = "relationship_count"
)

// LoadScenario reads and parses a scenario YAML file. The fixture path is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the fixture path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) && basePath != "" {
		scenario.Fixture = filepath.Join(basePath, scenario.Fixture)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("backend %q: want %q or %q", s.Backend, BackendMemory, BackendSQLite)
	}

	if s.Fixture != "" {
		if _, err := os.Stat(s.Fixture); os.IsNotExist(err) {
			return fmt.Errorf("fixture file not found: %s", s.Fixture)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate name %q", i, step.Name)
		}
		seen[step.Name] = true
		if step.Query == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if step.Expect.Error != "" && (len(step.Expect.Rows) > 0 || step.Expect.Count != nil) {
			return fmt.Errorf("steps[%d]: error cannot be combined with rows or count", i)
		}
		if step.Expect.Unordered && len(step.Expect.Rows) == 0 {
			return fmt.Errorf("steps[%d]: unordered requires rows", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertNodeCount:
			if a.RelType != "" {
				return fmt.Errorf("assertions[%d]: node_count does not take rel_type", i)
			}
		case AssertRelationshipCount:
			if a.Label != "" {
				return fmt.Errorf("assertions[%d]: relationship_count does not take label", i)
			}
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be >= 0", i)
		}
	}

	return nil
}
