package query

import "strings"

// Preprocess cleans query text lifted out of a host-language string literal.
//
// Each line loses its leading whitespace and one leading '|' continuation
// marker, and is cut at the first "//". Lines are rejoined with "\n".
//
// Comment removal does not look at string literals: a "//" inside a quoted
// string truncates the line. The lexer skips comments itself with string
// awareness, so callers holding plain query text can use Parse directly.
func Preprocess(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimLeft(line, " \t\r\f\v")
		line = strings.TrimPrefix(line, "|")
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
