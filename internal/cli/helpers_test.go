package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bslq/internal/testutil"
)

const testConfigCUE = `package config

catalog: Номенклатура: {
	attributes: {
		Артикул: "Строка(25)"
	}
}

document: РеализацияТоваровУслуг: {
	attributes: {
		Сумма: "Число(15,2)"
	}
	tabular_sections: {
		Товары: {
			Номенклатура: "СправочникСсылка.Номенклатура"
			Количество:   "Число(15,3)"
		}
	}
}

register: accumulation: ТоварыНаСкладах: {
	dimensions: {
		Номенклатура: "СправочникСсылка.Номенклатура"
	}
	resources: {
		Количество: "Число(15,3)"
	}
}
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testConfigDir writes the shared CUE metadata to a fresh directory.
func testConfigDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "config")
	writeFile(t, dir, "config.cue", testConfigCUE)
	return dir
}

// testRootOptions returns options with a fixed run id.
func testRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, RunIDs: testutil.NewFixedRunIDGenerator("")}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
