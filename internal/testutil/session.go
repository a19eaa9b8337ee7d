package testutil

// FixedSessionGenerator returns the same session ID every time.
//
// This enables deterministic test execution and golden transcript
// comparison: the same script with the same generator produces identical
// store contents.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator returning id.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements shell.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
