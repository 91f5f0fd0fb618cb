package ledger

import "time"

// RunStatus represents the lifecycle of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
	// RunAbandoned marks runs that were still running when a later process
	// opened the ledger, i.e. the process that owned them crashed.
	RunAbandoned RunStatus = "abandoned"
)

// FileStatus is the outcome recorded for one input file.
type FileStatus string

const (
	FileAligned    FileStatus = "aligned"
	FileRasterized FileStatus = "rasterized"
	FileFailed     FileStatus = "failed"
)

// Grid is the reference grid a run computed.
type Grid struct {
	Extent     [4]float64
	Resolution float64
	CRS        string
}

// Run is one pipeline invocation.
type Run struct {
	ID         string
	InputRoot  string
	OutputRoot string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Grid       *Grid
	Error      string

	Aligned    int
	Rasterized int
	Failed     int
}

// Duration returns the run's wall-clock time, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FileRecord is the outcome of one input file within a run.
type FileRecord struct {
	RunID              string
	RelPath            string
	Kind               string
	Status             FileStatus
	OutputPath         string
	Algorithm          string
	NativeSize         float64
	CroppedToReference bool
	Error              string
	RecordedAt         time.Time
}
