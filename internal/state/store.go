// Package state persists check-run history: one row per run and one row
// per theorem result, so repeated checks can be compared over time.
package state

import "time"

// RunStatus represents the lifecycle state of a check run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one invocation of the checker over a proof tree.
type Run struct {
	ID          string
	Root        string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Theorems    int
	Certified   int
	Failed      int
	Error       string
}

// TheoremResult is the persisted outcome of one theorem in one run.
type TheoremResult struct {
	ID          string
	RunID       string
	Name        string
	Module      string
	Status      string
	Certificate string // certificate UUID, empty when failed
	UsesTodo    bool
	DurationMS  int64
	Error       string
}

// StateStore is the persistence interface for run history.
type StateStore interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(root string) (*Run, error)
	CompleteRun(id string, status RunStatus, theorems, certified, failed int, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordTheorem(result *TheoremResult) error
	GetTheoremsForRun(runID string) ([]*TheoremResult, error)
}
