package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: builtins
description: "Document built-in columns"
objects:
  - kind: document
    name: Заказ
    attributes: []
query: ВЫБРАТЬ Номер, Дата ИЗ Документ.Заказ
assertions:
  - type: field_type
    field: Дата
    expect: Date
  - type: no_errors
`

const failingScenario = `name: wrong_type
description: "Expects the wrong type"
query: ВЫБРАТЬ 1 КАК А
assertions:
  - type: field_type
    field: А
    expect: String
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(testRootOptions("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(testRootOptions("text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(testRootOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(testRootOptions("json")), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "test-run-default", response.RunID)
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "builtins.yaml", passingScenario)

	out, _, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ builtins")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "builtins.yaml", passingScenario)
	writeFile(t, dir, "wrong_type.yaml", failingScenario)

	out, _, err := execute(NewTestCommand(testRootOptions("json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFails, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "wrong_type", resp.Data.Scenarios[1].Name)
	require.NotEmpty(t, resp.Data.Scenarios[1].Errors)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "А: Number")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, _, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "Load error")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "builtins.yaml", passingScenario)

	out, _, err := execute(NewTestCommand(testRootOptions("text")), "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ builtins (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "builtins.golden"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(golden), `{"scenario_name":"builtins","statements":[`))

	out, _, err = execute(NewTestCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ builtins")

	// A stale golden fails the run
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "builtins.golden"), []byte("{}"), 0644))
	out, _, err = execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "Golden file mismatch")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata", "scenarios")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("harness scenarios not found")
	}

	out, _, err := execute(NewTestCommand(testRootOptions("text")), "--filter", "document_*", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestHelpText(t *testing.T) {
	out, _, err := execute(NewTestCommand(testRootOptions("text")), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "scenarios")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create scenario files
	writeFile(t, tmpDir, "test1.yaml", "")
	writeFile(t, tmpDir, "test2.yml", "")
	writeFile(t, tmpDir, "ignore.txt", "")
	writeFile(t, tmpDir, "golden/test1.golden", "")

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "batch-temp.yaml", "")
	writeFile(t, tmpDir, "batch-parallel.yaml", "")
	writeFile(t, tmpDir, "check-fields.yaml", "")

	files, err := findScenarioFiles(tmpDir, "batch-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for _, f := range files {
		assert.True(t, strings.HasPrefix(filepath.Base(f), "batch-"), "Expected file to start with 'batch-': %s", f)
	}
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "root.yaml", "")
	writeFile(t, tmpDir, "subdir/sub.yaml", "")

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		result := goldenFilePath(tc.input)
		assert.Equal(t, tc.expected, result)
	}
}
