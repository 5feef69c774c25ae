package binder

import (
	"time"

	"github.com/ncihtan/htan2-project-setup/folders"
)

// Status is the terminal state of one binding attempt.
type Status string

const (
	// StatusBound means the platform acknowledged the bind.
	StatusBound Status = "bound"
	// StatusFailed means the bind failed terminally (after retries for
	// transient errors, immediately for fatal ones).
	StatusFailed Status = "failed"
	// StatusSkipped means the pair was excluded by a caller-supplied filter.
	StatusSkipped Status = "skipped"
)

// Binding is the atomic unit of work and of persisted state: one folder, one
// schema, one outcome. A later binding for the same folder key supersedes an
// earlier one; bindings are never deleted.
type Binding struct {
	Key        folders.Key
	FolderID   string
	SchemaName string
	SchemaFile string
	SchemaURI  string
	Status     Status
	// Error carries the diagnostic detail for failed bindings: folder key,
	// schema name, and underlying cause.
	Error string
	// FileviewID is absent at bind time and backfilled later from the
	// generated documentation artifact. It is only ever added, never removed.
	FileviewID string
	Timestamp  time.Time
}
