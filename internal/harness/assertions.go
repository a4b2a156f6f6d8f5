package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/bslq/internal/checker"
	"github.com/roach88/bslq/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome

	// Errors holds the checker errors of the statement involved, if any.
	Errors []checker.QueryError
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Errors) > 0 {
		fmt.Fprintf(&buf, "\nChecker errors:\n")
		for i, qe := range e.Errors {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, qe.Error())
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertParseError {
		return assertParseError(result, a)
	}
	if result.ParseError != "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: "text parses",
			Actual:   result.ParseError,
		}
	}

	switch a.Type {
	case AssertFieldType:
		return assertFieldType(result, a)
	case AssertFieldCount:
		return assertFieldCount(result, a)
	case AssertErrorCode:
		return assertErrorCode(result, a)
	case AssertErrorCount:
		return assertErrorCount(result, a)
	case AssertNoErrors:
		return assertNoErrors(result)
	case AssertExecutionOrder:
		if !slices.Equal(result.Plan.Order, a.Order) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprint(a.Order),
				Actual:   fmt.Sprint(result.Plan.Order),
			}
		}
	case AssertParallelGroups:
		if !slices.EqualFunc(result.Plan.Groups, a.Groups, slices.Equal[[]int]) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprint(a.Groups),
				Actual:   fmt.Sprint(result.Plan.Groups),
			}
		}
	case AssertTempTable:
		return assertTempTable(result, a)
	case AssertWarning:
		for _, w := range result.Plan.Warnings {
			if w.Code == a.Code {
				return nil
			}
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: "warning " + a.Code,
			Actual:   fmt.Sprintf("%d warning(s) without that code", len(result.Plan.Warnings)),
		}
	case AssertConnected, AssertDisconnected:
		want := a.Type == AssertConnected
		if result.Plan.Connected != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("is_connected=%t", want),
				Actual:   fmt.Sprintf("is_connected=%t", result.Plan.Connected),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// statementFor returns the statement an assertion targets, or an error
// when it does not exist.
func statementFor(result *Result, a Assertion) (*checker.Result, error) {
	res := result.statement(a.Statement)
	if res == nil {
		return nil, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("statement %d", a.Statement),
			Actual:   fmt.Sprintf("%d statement(s)", len(result.Statements)),
		}
	}
	return res, nil
}

func assertParseError(result *Result, a Assertion) error {
	if result.ParseError == "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: "parse failure",
			Actual:   "text parsed",
		}
	}
	if a.Expect != "" && !strings.Contains(result.ParseError, a.Expect) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("message containing %q", a.Expect),
			Actual:   result.ParseError,
		}
	}
	return nil
}

// assertFieldType compares the type's display form, so expect is written
// as "String", "CatalogRef.Номенклатура" or "Unknown".
func assertFieldType(result *Result, a Assertion) error {
	res, err := statementFor(result, a)
	if err != nil {
		return err
	}
	for _, f := range res.Fields {
		if !ir.SameName(f.Name, a.Field) {
			continue
		}
		if f.Type.String() != a.Expect {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s: %s", a.Field, a.Expect),
				Actual:   fmt.Sprintf("%s: %s", f.Name, f.Type),
				Errors:   res.Errors,
			}
		}
		return nil
	}

	names := make([]string, len(res.Fields))
	for i, f := range res.Fields {
		names[i] = f.Name
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: "field " + a.Field,
		Actual:   "fields " + strings.Join(names, ", "),
		Errors:   res.Errors,
	}
}

func assertFieldCount(result *Result, a Assertion) error {
	res, err := statementFor(result, a)
	if err != nil {
		return err
	}
	if len(res.Fields) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d field(s)", a.Count),
			Actual:   fmt.Sprintf("%d field(s)", len(res.Fields)),
		}
	}
	return nil
}

func assertErrorCode(result *Result, a Assertion) error {
	res, err := statementFor(result, a)
	if err != nil {
		return err
	}
	for _, qe := range res.Errors {
		if qe.Code == a.Code {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: "error " + a.Code,
		Actual:   fmt.Sprintf("%d error(s) without that code", len(res.Errors)),
		Errors:   res.Errors,
	}
}

func assertErrorCount(result *Result, a Assertion) error {
	res, err := statementFor(result, a)
	if err != nil {
		return err
	}
	if len(res.Errors) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d error(s)", a.Count),
			Actual:   fmt.Sprintf("%d error(s)", len(res.Errors)),
			Errors:   res.Errors,
		}
	}
	return nil
}

func assertNoErrors(result *Result) error {
	for i, res := range result.Statements {
		if len(res.Errors) > 0 {
			return &AssertionError{
				Type:     AssertNoErrors,
				Expected: "no errors",
				Actual:   fmt.Sprintf("statement %d has %d error(s)", i, len(res.Errors)),
				Errors:   res.Errors,
			}
		}
	}
	return nil
}

func assertTempTable(result *Result, a Assertion) error {
	for name, creator := range result.Plan.TempTables {
		if !ir.SameName(name, a.Table) {
			continue
		}
		if creator != a.Creator {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s created by statement %d", a.Table, a.Creator),
				Actual:   fmt.Sprintf("created by statement %d", creator),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: "temp table " + a.Table,
		Actual:   "not created",
	}
}
