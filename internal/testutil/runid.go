// Package testutil holds deterministic stand-ins for tests.
package testutil

// DefaultRunID is returned by a FixedRunIDGenerator created with an
// empty id.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator returns the same run id every time, so CLI output
// can be compared byte for byte.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator returning id, or
// DefaultRunID when id is empty.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements cli.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
