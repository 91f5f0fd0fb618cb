package pipeline

import (
	"time"

	"rasteralign/internal/align"
	"rasteralign/internal/publish"
)

// Kind distinguishes raster from vector inputs.
type Kind string

const (
	KindRaster Kind = "raster"
	KindVector Kind = "vector"
)

// Status is the final state of one input file.
type Status string

const (
	StatusAligned    Status = "aligned"
	StatusRasterized Status = "rasterized"
	StatusFailed     Status = "failed"
)

// FileOutcome is the tagged result of one input file.
type FileOutcome struct {
	Path   string
	Rel    string
	Kind   Kind
	Status Status
	Output string
	// Plan is set for rasters that reached the grid normalizer.
	Plan *align.Plan
	Err  error
}

// Failed reports whether the file produced no output.
func (o FileOutcome) Failed() bool {
	return o.Status == StatusFailed
}

// Counts tallies outcomes by status.
type Counts struct {
	Aligned    int
	Rasterized int
	Failed     int
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	InputRoot  string
	OutputRoot string

	Grid       align.ReferenceGrid
	GridSource string
	GridReused bool
	// Selection is empty when the grid was reused.
	Selection align.ReferenceSelection

	SidecarPath string
	RunLogPath  string
	Outcomes    []FileOutcome
	Published   *publish.Result

	StartedAt  time.Time
	FinishedAt time.Time
}

// Counts tallies the run's outcomes.
func (s *Summary) Counts() Counts {
	var c Counts
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusAligned:
			c.Aligned++
		case StatusRasterized:
			c.Rasterized++
		case StatusFailed:
			c.Failed++
		}
	}
	return c
}

// Failures returns the outcomes that produced no output.
func (s *Summary) Failures() []FileOutcome {
	var out []FileOutcome
	for _, o := range s.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Outputs lists every written output path in outcome order.
func (s *Summary) Outputs() []string {
	var out []string
	for _, o := range s.Outcomes {
		if !o.Failed() && o.Output != "" {
			out = append(out, o.Output)
		}
	}
	return out
}

// Duration is the run's wall-clock time.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
