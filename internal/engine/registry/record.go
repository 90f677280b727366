package registry

import "errors"

var (
	// ErrNotFound means the referenced record no longer exists,
	// usually because it expired and was swept.
	ErrNotFound = errors.New("record not found")

	// ErrStorage wraps persistence failures. A code whose Create
	// returned ErrStorage was never issued.
	ErrStorage = errors.New("registry storage failure")
)

// Record is one issued code. Everything except ScanCount is immutable
// after creation; the registry is the only writer.
type Record struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	ResourcePath string `json:"resource_path,omitempty"`
	Payload      string `json:"payload"`
	ScanCount    int    `json:"scan_count"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    int64  `json:"expires_at"`
}
