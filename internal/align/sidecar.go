package align

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rasteralign/internal/geo"
)

// ErrMalformedGridRecord is returned when a grid record cannot be parsed.
var ErrMalformedGridRecord = errors.New("malformed grid record")

// WriteGridRecord persists grid at path as an indented JSON array of
// [xmin, ymin, xmax, ymax], a line with the resolution and, when the CRS has
// an authority code, a line such as "EPSG:4326".
func WriteGridRecord(path string, grid ReferenceGrid) error {
	var buf bytes.Buffer
	extent, err := json.MarshalIndent(grid.Extent.Array(), "", "    ")
	if err != nil {
		return fmt.Errorf("encode grid extent: %w", err)
	}
	buf.Write(extent)
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatFloat(grid.Resolution, 'g', -1, 64))
	buf.WriteByte('\n')
	if grid.CRS.Known() {
		buf.WriteString(grid.CRS.String())
		buf.WriteByte('\n')
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create grid record directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write grid record: %w", err)
	}
	return nil
}

// ReadGridRecord loads a grid written by WriteGridRecord. Records holding
// only the extent and resolution are accepted; their CRS is fallback.
func ReadGridRecord(path string, fallback geo.CRS) (ReferenceGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceGrid{}, fmt.Errorf("read grid record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var extent []float64
	if err := dec.Decode(&extent); err != nil {
		return ReferenceGrid{}, fmt.Errorf("%w: extent: %v", ErrMalformedGridRecord, err)
	}
	if len(extent) != 4 {
		return ReferenceGrid{}, fmt.Errorf("%w: extent has %d values, want 4", ErrMalformedGridRecord, len(extent))
	}

	rest := data[dec.InputOffset():]
	fields := strings.Fields(string(rest))
	if len(fields) == 0 {
		return ReferenceGrid{}, fmt.Errorf("%w: missing resolution", ErrMalformedGridRecord)
	}
	res, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return ReferenceGrid{}, fmt.Errorf("%w: resolution %q", ErrMalformedGridRecord, fields[0])
	}

	crs := fallback
	if len(fields) > 1 {
		if crs, err = geo.ParseCRS(strings.Join(fields[1:], " ")); err != nil {
			return ReferenceGrid{}, fmt.Errorf("%w: crs: %v", ErrMalformedGridRecord, err)
		}
	}

	grid := ReferenceGrid{
		Extent:     geo.NewExtent(extent[0], extent[1], extent[2], extent[3], crs),
		Resolution: res,
		CRS:        crs,
	}
	if err := grid.Validate(); err != nil {
		return ReferenceGrid{}, fmt.Errorf("%w: %v", ErrMalformedGridRecord, err)
	}
	return grid, nil
}
