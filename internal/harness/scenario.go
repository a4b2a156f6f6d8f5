package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bslq/internal/metadata"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Metadata is a directory of CUE metadata. Relative paths are
	// resolved against the scenario file.
	Metadata string `yaml:"metadata,omitempty"`

	// Objects declares metadata inline, in addition to Metadata.
	Objects []*metadata.Object `yaml:"objects,omitempty"`

	// Params maps parameter names to type names such as "Дата" or
	// "СправочникСсылка.Номенклатура".
	Params map[string]string `yaml:"params,omitempty"`

	Query    string `yaml:"query,omitempty"`
	Batch    string `yaml:"batch,omitempty"`
	Embedded bool   `yaml:"embedded,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// IsBatch reports whether the scenario checks a batch.
func (s *Scenario) IsBatch() bool {
	return s.Batch != ""
}

// Assertion is one expected outcome. Which fields apply depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// Statement selects a batch statement; zero for single queries.
	Statement int `yaml:"statement,omitempty"`

	Field   string  `yaml:"field,omitempty"`
	Expect  string  `yaml:"expect,omitempty"`
	Code    string  `yaml:"code,omitempty"`
	Count   int     `yaml:"count,omitempty"`
	Order   []int   `yaml:"order,omitempty"`
	Groups  [][]int `yaml:"groups,omitempty"`
	Table   string  `yaml:"table,omitempty"`
	Creator int     `yaml:"creator,omitempty"`
}

// Assertion type constants.
const (
	AssertFieldType      = "field_type"
	AssertFieldCount     = "field_count"
	AssertErrorCode      = "error_code"
	AssertErrorCount     = "error_count"
	AssertNoErrors       = "no_errors"
	AssertParseError     = "parse_error"
	AssertExecutionOrder = "execution_order"
	AssertParallelGroups = "parallel_groups"
	AssertTempTable      = "temp_table"
	AssertWarning        = "warning"
	AssertConnected      = "connected"
	AssertDisconnected   = "disconnected"
)

// batchOnly lists assertion types that need a batch scenario.
var batchOnly = map[string]bool{
	AssertExecutionOrder: true,
	AssertParallelGroups: true,
	AssertTempTable:      true,
	AssertWarning:        true,
	AssertConnected:      true,
	AssertDisconnected:   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the metadata path relative to the scenario BEFORE validation
	if scenario.Metadata != "" && !filepath.IsAbs(scenario.Metadata) {
		scenario.Metadata = filepath.Join(filepath.Dir(path), scenario.Metadata)
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

	switch {
	case s.Query == "" && s.Batch == "":
		return fmt.Errorf("one of query or batch is required")
	case s.Query != "" && s.Batch != "":
		return fmt.Errorf("query and batch are mutually exclusive")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Metadata != "" {
		if _, err := os.Stat(s.Metadata); os.IsNotExist(err) {
			return fmt.Errorf("metadata directory not found: %s", s.Metadata)
		}
	}

	for i, obj := range s.Objects {
		if obj == nil || obj.Name == "" || obj.Kind == "" {
			return fmt.Errorf("objects[%d]: kind and name are required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.IsBatch()); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, isBatch bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if batchOnly[a.Type] && !isBatch {
		return fmt.Errorf("assertions[%d]: %s requires a batch", index, a.Type)
	}
	if a.Statement < 0 {
		return fmt.Errorf("assertions[%d]: statement must be non-negative", index)
	}

	switch a.Type {
	case AssertFieldType:
		if a.Field == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: field and expect are required for field_type", index)
		}
	case AssertFieldCount, AssertErrorCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertErrorCode, AssertWarning:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for %s", index, a.Type)
		}
	case AssertExecutionOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order is required for execution_order", index)
		}
	case AssertParallelGroups:
		if len(a.Groups) == 0 {
			return fmt.Errorf("assertions[%d]: groups is required for parallel_groups", index)
		}
	case AssertTempTable:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for temp_table", index)
		}
	case AssertNoErrors, AssertParseError, AssertConnected, AssertDisconnected:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
