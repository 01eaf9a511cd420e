package model

// SessionState is the lifecycle stage of a diagnostic session. Exactly one
// state is active at a time.
type SessionState int

const (
	// StateUpload waits for an image. It is the initial state and the
	// state every reset returns to.
	StateUpload SessionState = iota

	// StateScanning waits for the primary diagnosis to resolve.
	StateScanning

	// StateResult holds a diagnostic record until the next reset.
	StateResult
)

// String returns the lowercase state name.
func (s SessionState) String() string {
	switch s {
	case StateUpload:
		return "upload"
	case StateScanning:
		return "scanning"
	case StateResult:
		return "result"
	default:
		return "unknown"
	}
}
