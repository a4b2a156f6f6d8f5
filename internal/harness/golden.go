package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bslq/internal/ir"
)

// Snapshot returns the canonical JSON of a run: every statement's fields
// and errors plus the batch plan. Assertion outcomes are not part of it.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	statements := make([]any, len(result.Statements))
	for i, res := range result.Statements {
		statements[i] = res.Canonical()
	}

	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"statements":    statements,
	}
	if result.Plan != nil {
		snapshot["plan"] = result.Plan.Canonical()
	}
	if result.ParseError != "" {
		snapshot["parse_error"] = result.ParseError
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
