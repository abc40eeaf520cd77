package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of operations against one store plus the
// assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Vocabularies lists CUE vocabulary directories ensured before the
	// first step. Paths are relative to the scenario file.
	Vocabularies []string `yaml:"vocabularies,omitempty"`

	// Steps run in order. Each step sets exactly one operation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation.
type Step struct {
	// Transact is an EDN transaction.
	Transact string `yaml:"transact,omitempty"`

	// Move moves transactions off the main timeline.
	Move *MoveStep `yaml:"move,omitempty"`

	// Query is an EDN find query.
	Query string `yaml:"query,omitempty"`

	// Expect validates the outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// MoveStep moves every main-timeline transaction from the one committed by
// step FromStep onwards onto Timeline.
type MoveStep struct {
	FromStep int   `yaml:"from_step"`
	Timeline int64 `yaml:"timeline"`
}

// Expect describes a step's expected outcome.
type Expect struct {
	// Error is the expected error kind, e.g. BAD_VALUE_PAIR.
	Error string `yaml:"error,omitempty"`

	// TempIDs must all be resolved by a transact step.
	TempIDs []string `yaml:"tempids,omitempty"`

	// Rows are the expected query rows in EDN text form.
	Rows [][]string `yaml:"rows,omitempty"`

	// Moved is the expected number of moved transactions.
	Moved int `yaml:"moved,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of value, attribute or timeline.
	Type string `yaml:"type"`

	// Entity is a causetid or $tempid (value).
	Entity string `yaml:"entity,omitempty"`

	// Attribute is a solitonid (value, attribute).
	Attribute string `yaml:"attribute,omitempty"`

	// Values are the expected values in EDN text form (value).
	Values []string `yaml:"values,omitempty"`

	// Absent inverts an attribute assertion.
	Absent bool `yaml:"absent,omitempty"`

	// Timeline and Transactions are used by timeline.
	Timeline     int64 `yaml:"timeline,omitempty"`
	Transactions int   `yaml:"transactions,omitempty"`
}

// Assertion type constants.
const (
	AssertValue     = "value"
	AssertAttribute = "attribute"
	AssertTimeline  = "timeline"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and vocabulary paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, dir := range scenario.Vocabularies {
		if !filepath.IsAbs(dir) {
			scenario.Vocabularies[i] = filepath.Join(base, dir)
		}
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		ops := 0
		if step.Transact != "" {
			ops++
		}
		if step.Move != nil {
			ops++
			if step.Move.FromStep < 0 || step.Move.FromStep >= i {
				return fmt.Errorf("steps[%d]: move.from_step must name an earlier step", i)
			}
		}
		if step.Query != "" {
			ops++
		}
		if ops != 1 {
			return fmt.Errorf("steps[%d]: exactly one of transact, move or query is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertValue:
		if a.Entity == "" || a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: entity and attribute are required for value", index)
		}
	case AssertAttribute:
		if a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: attribute is required for attribute", index)
		}
	case AssertTimeline:
		if a.Transactions < 0 {
			return fmt.Errorf("assertions[%d]: transactions must be non-negative for timeline", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
