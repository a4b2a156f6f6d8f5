package ir

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison key for a query identifier.
//
// Identifiers and keywords in the query language are case-insensitive and
// may arrive in either composed or decomposed Unicode form, so the key is
// the NFC form with full Unicode case folding applied. A Caser is stateful,
// so one is created per call.
func Fold(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// SameName reports whether two identifiers refer to the same name.
func SameName(a, b string) bool {
	return Fold(a) == Fold(b)
}
