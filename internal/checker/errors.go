package checker

import "fmt"

// Semantic error codes (E200-E299)
const (
	ErrFieldNotFound      = "E201" // unqualified field in no table
	ErrAmbiguousField     = "E202" // unqualified field in several tables
	ErrTableNotFound      = "E203" // qualifier names no table in scope
	ErrFieldNotInTable    = "E204" // table has no such column
	ErrNotBoolean         = "E205" // condition of a known non-boolean type
	ErrNotGrouped         = "E206" // select item neither aggregate nor grouped
	ErrSchemaUnavailable  = "E207" // provider failed for a reason other than not-found
	ErrDuplicateAlias     = "E208" // two sources share a scope key
	ErrUnknownVirtual     = "E209" // unknown virtual table name
	ErrWildcardNoTables   = "E210" // * without any source
	ErrUnknownTempTable   = "E211" // bare table not created earlier in the batch
	ErrUnknownDereference = "E212" // .Attr on a non-reference or missing attribute
)

// QueryError is a semantic problem found while checking. Checking always
// continues past it.
type QueryError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Error implements the error interface.
func (e QueryError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Location, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
