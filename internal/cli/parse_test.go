package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "выбрать Код из Справочник.Номенклатура")

	out, _, err := execute(NewParseCommand(testRootOptions("text")), path)
	require.NoError(t, err)
	assert.Equal(t, "ВЫБРАТЬ\n\tКод\nИЗ Справочник.Номенклатура\n", out)
}

func TestParseCommandBatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "ВЫБРАТЬ 1 КАК А ПОМЕСТИТЬ ВТ; ВЫБРАТЬ А ИЗ ВТ")

	out, _, err := execute(NewParseCommand(testRootOptions("text")), path)
	require.NoError(t, err)
	assert.Equal(t, "ВЫБРАТЬ\n\t1 КАК А\nПОМЕСТИТЬ ВТ;\n\nВЫБРАТЬ\n\tА\nИЗ ВТ\n", out)
}

func TestParseCommandJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "ВЫБРАТЬ 1 КАК А ПОМЕСТИТЬ ВТ; ВЫБРАТЬ А ИЗ ВТ")

	out, _, err := execute(NewParseCommand(testRootOptions("json")), path)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
		RunID  string      `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-run-default", resp.RunID)
	require.Len(t, resp.Data.Statements, 2)
	assert.Equal(t, []string{}, resp.Data.Statements[0].Tables)
	assert.Equal(t, []string{"ВТ"}, resp.Data.Statements[1].Tables)
	assert.Equal(t, 1, resp.Data.Statements[1].Index)
	assert.True(t, strings.Contains(out, `"into_temp_table": "ВТ"`))
}

func TestParseCommandEmbedded(t *testing.T) {
	text := "ВЫБРАТЬ\n|\tН.Код // код\n|ИЗ Справочник.Номенклатура КАК Н"
	path := writeFile(t, t.TempDir(), "q.txt", text)

	out, _, err := execute(NewParseCommand(testRootOptions("text")), "--embedded", path)
	require.NoError(t, err)
	assert.Equal(t, "ВЫБРАТЬ\n\tН.Код\nИЗ Справочник.Номенклатура КАК Н\n", out)
}

func TestParseCommandStdin(t *testing.T) {
	cmd := NewParseCommand(testRootOptions("text"))
	cmd.SetIn(strings.NewReader("ВЫБРАТЬ 1"))

	out, _, err := execute(cmd, "-")
	require.NoError(t, err)
	assert.Equal(t, "ВЫБРАТЬ\n\t1\n", out)
}

func TestParseCommandSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "ВЫБРАТЬ Код ИЗ")

	out, _, err := execute(NewParseCommand(testRootOptions("json")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "parse error")
	assert.NotNil(t, resp.Error.Details)
}

func TestParseCommandMissingFile(t *testing.T) {
	_, _, err := execute(NewParseCommand(testRootOptions("text")), "/nonexistent/q.txt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "query file not found")
}
