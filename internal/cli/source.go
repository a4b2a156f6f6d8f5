package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
	"github.com/roach88/bslq/internal/store"
)

// Error codes for command-level failures.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeInput     = "E010" // Query text unreadable
	ErrCodeParse     = "E011" // Query text does not parse
	ErrCodeMetadata  = "E012" // Metadata unreadable or invalid
	ErrCodeParams    = "E013" // Parameter declarations invalid
	ErrCodeDatabase  = "E014" // Metadata database error
	ErrCodeChecked   = "E020" // Checker reported errors
	ErrCodeValidate  = "E021" // Metadata failed validation
	ErrCodeTestFails = "E_TEST_FAILED"
)

// QueryInputOptions are the flags shared by commands that read query text.
type QueryInputOptions struct {
	Embedded bool // strip host-literal | markers and // comments first
}

func (o *QueryInputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.Embedded, "embedded", false, "text was copied from a module string literal")
}

// readQueryText returns the text of path, or stdin when path is "-".
func readQueryText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewExitError(ExitCommandError, fmt.Sprintf("query file not found: %s", path))
		}
		return "", WrapExitError(ExitCommandError, "failed to read query file", err)
	}
	return string(data), nil
}

// MetadataOptions are the flags shared by commands that check against
// metadata.
type MetadataOptions struct {
	Metadata   string   // CUE directory or SQLite database
	Params     []string // name=Type
	ParamsFile string   // YAML mapping of name to type
}

func (o *MetadataOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Metadata, "metadata", "m", "", "CUE metadata directory or metadata database (.db)")
	cmd.Flags().StringArrayVarP(&o.Params, "param", "p", nil, "parameter type as name=Type (repeatable)")
	cmd.Flags().StringVar(&o.ParamsFile, "params", "", "YAML file mapping parameter names to types")
}

// openProvider returns the provider named by --metadata and a function
// releasing it. A nil provider means no metadata was given.
func (o *MetadataOptions) openProvider() (metadata.Provider, func(), error) {
	noop := func() {}
	if o.Metadata == "" {
		return nil, noop, nil
	}

	info, err := os.Stat(o.Metadata)
	if os.IsNotExist(err) {
		return nil, noop, NewExitError(ExitCommandError, fmt.Sprintf("metadata not found: %s", o.Metadata))
	}
	if err != nil {
		return nil, noop, WrapExitError(ExitCommandError, "failed to access metadata", err)
	}

	if !info.IsDir() {
		st, err := store.Open(o.Metadata)
		if err != nil {
			return nil, noop, WrapExitError(ExitCommandError, "failed to open metadata database", err)
		}
		return st, func() { st.Close() }, nil
	}

	static, errs := metadata.LoadCUE(o.Metadata)
	if len(errs) > 0 {
		return nil, noop, WrapExitError(ExitCommandError, "failed to load metadata", errs[0])
	}
	if verrs := metadata.Validate(static.Objects()); len(verrs) > 0 {
		return nil, noop, WrapExitError(ExitCommandError, "invalid metadata", verrs[0])
	}
	return static, noop, nil
}

// parameters merges --params and --param declarations; --param wins.
func (o *MetadataOptions) parameters() (map[string]ir.TypeResolution, error) {
	names := make(map[string]string)
	if o.ParamsFile != "" {
		data, err := os.ReadFile(o.ParamsFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read params file", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&names); err != nil && err != io.EOF {
			return nil, WrapExitError(ExitCommandError, "failed to parse params file", err)
		}
	}
	for _, p := range o.Params {
		name, typ, ok := strings.Cut(p, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), "&")
		if !ok || name == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --param %q: want name=Type", p))
		}
		names[name] = strings.TrimSpace(typ)
	}

	params := make(map[string]ir.TypeResolution, len(names))
	for name, typeName := range names {
		typ, err := ir.ParseTypeName(typeName)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parameter %s", name), err)
		}
		params[name] = typ
	}
	return params, nil
}

// isDatabasePath reports whether path names a metadata database rather
// than a CUE directory.
func isDatabasePath(path string) bool {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
