package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reassign/internal/ir"
)

// Scenario represents a conformance scenario loaded from YAML.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Declarations is inline CUE holding the scenario's relation
	// declarations.
	Declarations string `yaml:"declarations"`

	// MaxDepth overrides the reconciler's nested depth limit when non-zero.
	MaxDepth int `yaml:"max_depth,omitempty"`

	Setup      Setup       `yaml:"setup,omitempty"`
	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Setup seeds the store before any step runs.
type Setup struct {
	Records []SetupRecord `yaml:"records,omitempty"`
	Links   []SetupLink   `yaml:"links,omitempty"`
}

// SetupRecord creates one record. An "id" field requests that identity.
type SetupRecord struct {
	Type   string         `yaml:"type"`
	Fields map[string]any `yaml:"fields"`
}

// SetupLink sets an association directly, bypassing reconciliation.
type SetupLink struct {
	Parent   string   `yaml:"parent"`   // "Person:1"
	Relation string   `yaml:"relation"` // "pets"
	Children []string `yaml:"children"` // ["Pet:1", "Pet:2"]
}

// Step applies one nested payload to a parent's relationship.
type Step struct {
	Parent   string `yaml:"parent"`
	Relation string `yaml:"relation"`
	Payload  any    `yaml:"payload"`

	// ExpectError is the reconciliation error code the step must fail
	// with, such as RECORD_NOT_FOUND. Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks final store state after all steps.
type Assertion struct {
	Type string `yaml:"type"`

	// association
	Parent   string   `yaml:"parent,omitempty"`
	Relation string   `yaml:"relation,omitempty"`
	Children []string `yaml:"children,omitempty"`

	// exists, missing, field
	Record string `yaml:"record,omitempty"`

	// field
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertAssociation = "association"
	AssertExists      = "exists"
	AssertMissing     = "missing"
	AssertField       = "field"
)

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos)
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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
	if s.Declarations == "" {
		return fmt.Errorf("declarations are required")
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, rec := range s.Setup.Records {
		if rec.Type == "" {
			return fmt.Errorf("setup.records[%d]: type is required", i)
		}
	}
	for i, link := range s.Setup.Links {
		if err := checkRef(link.Parent); err != nil {
			return fmt.Errorf("setup.links[%d]: parent: %w", i, err)
		}
		if link.Relation == "" {
			return fmt.Errorf("setup.links[%d]: relation is required", i)
		}
		for j, child := range link.Children {
			if err := checkRef(child); err != nil {
				return fmt.Errorf("setup.links[%d].children[%d]: %w", i, j, err)
			}
		}
	}

	for i, step := range s.Steps {
		if err := checkRef(step.Parent); err != nil {
			return fmt.Errorf("steps[%d]: parent: %w", i, err)
		}
		if step.Relation == "" {
			return fmt.Errorf("steps[%d]: relation is required", i)
		}
		if step.Payload == nil {
			return fmt.Errorf("steps[%d]: payload is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertAssociation:
		if err := checkRef(a.Parent); err != nil {
			return fmt.Errorf("assertions[%d]: parent: %w", index, err)
		}
		if a.Relation == "" {
			return fmt.Errorf("assertions[%d]: relation is required for association", index)
		}
		for j, child := range a.Children {
			if err := checkRef(child); err != nil {
				return fmt.Errorf("assertions[%d].children[%d]: %w", index, j, err)
			}
		}
	case AssertExists, AssertMissing:
		if err := checkRef(a.Record); err != nil {
			return fmt.Errorf("assertions[%d]: record: %w", index, err)
		}
	case AssertField:
		if err := checkRef(a.Record); err != nil {
			return fmt.Errorf("assertions[%d]: record: %w", index, err)
		}
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func checkRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("reference is required")
	}
	_, _, err := ir.ParseRef(ref)
	return err
}
