package ir

// Version constants for persisted data and the engine.
const (
	// FormatVersion is the version of the persisted FD encoding.
	FormatVersion = "1"

	// EngineVersion is the armstrong engine version.
	EngineVersion = "0.1.0"
)

// Version tags the rule-application round that produced an FD.
// Zero means user-supplied.
type Version int64

// Next returns the version that follows v.
func (v Version) Next() Version {
	return v + 1
}
