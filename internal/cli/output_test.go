package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bslq/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
		RunID:  testutil.DefaultRunID,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, testutil.DefaultRunID, resp.RunID)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E011", "parse failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E011", resp.Error.Code)
	assert.Equal(t, "parse failed", resp.Error.Message)
	assert.Empty(t, resp.RunID)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]int{"line": 3, "column": 7}
	err := formatter.Error("E011", "unexpected token", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Failure(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
		RunID:  "run-1",
	}

	err := formatter.Failure(map[string]int{"errors": 2}, "E020", "check failed with 2 error(s)")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
		Error  *CLIError      `json:"error"`
		RunID  string         `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data["errors"])
	assert.Equal(t, "E020", resp.Error.Code)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("All metadata valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All metadata valid")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("E012", "failed to load metadata", map[string]string{"dir": "config"})
	require.NoError(t, err)
	assert.Equal(t, "✗ E012: failed to load metadata\n", buf.String(), "details are JSON-only")
}

func TestNewFormatterLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testRootOptions("json")
			opts.Verbose = tt.verbose
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := newFormatter(opts, buf, errBuf)

			formatter.Log.Debug("parsed query text", "statements", 3)

			assert.Empty(t, buf.String())
			assert.Equal(t, testutil.DefaultRunID, formatter.RunID)
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "statements=3")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestUUIDRunIDGenerator(t *testing.T) {
	gen := UUIDRunIDGenerator{}
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "import failed", inner)
	assert.Equal(t, "import failed: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "check failed")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E021",
		Message: "validation failed",
		Details: []string{"catalog.Склады: object name is required"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E021", decoded.Code)
	assert.Equal(t, "validation failed", decoded.Message)
}
