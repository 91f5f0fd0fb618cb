package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"rasteralign/internal/align"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type gridJSON struct {
	Extent     [4]float64 `json:"extent"`
	Resolution float64    `json:"resolution"`
	CRS        string     `json:"crs"`
	Cols       int        `json:"cols"`
	Rows       int        `json:"rows"`
}

func newGridJSON(grid align.ReferenceGrid) gridJSON {
	cols, rows := grid.Dims()
	return gridJSON{
		Extent:     grid.Extent.Array(),
		Resolution: grid.Resolution,
		CRS:        grid.CRS.String(),
		Cols:       cols,
		Rows:       rows,
	}
}

type fileJSON struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Output    string `json:"output,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Cropped   bool   `json:"cropped_to_reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

type runJSON struct {
	RunID      string     `json:"run_id"`
	InputRoot  string     `json:"input_root"`
	OutputRoot string     `json:"output_root"`
	Grid       gridJSON   `json:"grid"`
	GridSource string     `json:"grid_source"`
	GridReused bool       `json:"grid_reused"`
	Sidecar    string     `json:"sidecar"`
	RunLog     string     `json:"run_log,omitempty"`
	Files      []fileJSON `json:"files"`
	Aligned    int        `json:"aligned"`
	Rasterized int        `json:"rasterized"`
	Failed     int        `json:"failed"`
	Published  []string   `json:"published,omitempty"`
	Duration   string     `json:"duration"`
	Error      string     `json:"error,omitempty"`
}

func durationString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
