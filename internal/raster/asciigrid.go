package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"rasteralign/internal/geo"
)

// ErrMalformedGrid reports an ESRI ASCII grid that cannot be decoded.
var ErrMalformedGrid = errors.New("malformed ascii grid")

type gridHeader struct {
	cols, rows int
	xll, yll   float64
	centred    bool
	dx, dy     float64
	nodata     float64
	hasNoData  bool

	haveX, haveY       bool
	haveCols, haveRows bool
}

// ReadASCIIGrid decodes an ESRI ASCII grid. Both the corner and centre
// registrations are accepted, as is the dx/dy form for non-square cells.
// The returned raster has no CRS; that lives in the .prj sidecar.
func ReadASCIIGrid(rd io.Reader) (*Raster, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	var h gridHeader
	var pending string
	for scanner.Scan() {
		key := strings.ToLower(scanner.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			pending = scanner.Text()
			break
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: header key %q has no value", ErrMalformedGrid, key)
		}
		if err := h.set(key, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ascii grid: %w", err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	originX, originY := h.xll, h.yll+float64(h.rows)*h.dy
	if h.centred {
		originX -= h.dx / 2
		originY -= h.dy / 2
	}
	r := New(h.rows, h.cols, geo.GeoTransform{originX, h.dx, 0, originY, 0, -h.dy}, geo.CRS{})
	if h.hasNoData {
		r.SetNoData(h.nodata)
	}

	total := h.rows * h.cols
	n := 0
	next := func(tok string) error {
		if n >= total {
			return fmt.Errorf("%w: more than %d values", ErrMalformedGrid, total)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("%w: value %d: %v", ErrMalformedGrid, n, err)
		}
		r.Band.Set(n/h.cols, n%h.cols, v)
		n++
		return nil
	}
	if pending != "" {
		if err := next(pending); err != nil {
			return nil, err
		}
	}
	for scanner.Scan() {
		if err := next(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ascii grid: %w", err)
	}
	if n != total {
		return nil, fmt.Errorf("%w: expected %d values, found %d", ErrMalformedGrid, total, n)
	}
	return r, nil
}

func (h *gridHeader) set(key, value string) error {
	if key == "ncols" || key == "nrows" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s %q", ErrMalformedGrid, key, value)
		}
		if key == "ncols" {
			h.cols, h.haveCols = n, true
		} else {
			h.rows, h.haveRows = n, true
		}
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s %q", ErrMalformedGrid, key, value)
	}
	switch key {
	case "xllcorner", "xllcenter", "xllcentre":
		h.xll, h.haveX = v, true
		h.centred = key != "xllcorner"
	case "yllcorner", "yllcenter", "yllcentre":
		h.yll, h.haveY = v, true
	case "cellsize":
		h.dx, h.dy = v, v
	case "dx":
		h.dx = v
	case "dy":
		h.dy = v
	case "nodata_value":
		h.nodata, h.hasNoData = v, true
	default:
		return fmt.Errorf("%w: unknown header key %q", ErrMalformedGrid, key)
	}
	return nil
}

func (h *gridHeader) validate() error {
	switch {
	case !h.haveCols || !h.haveRows:
		return fmt.Errorf("%w: missing ncols/nrows", ErrMalformedGrid)
	case !h.haveX || !h.haveY:
		return fmt.Errorf("%w: missing lower-left origin", ErrMalformedGrid)
	case !(h.dx > 0) || !(h.dy > 0):
		return fmt.Errorf("%w: cell size must be positive", ErrMalformedGrid)
	}
	return nil
}

// WriteASCIIGrid encodes r with corner registration. Square cells use
// cellsize; anything else uses the dx/dy extension. Rotated rasters cannot
// be represented.
func WriteASCIIGrid(w io.Writer, r *Raster) error {
	rows, cols := r.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%w: empty raster", ErrMalformedGrid)
	}
	g := r.Transform
	if !g.NorthUpAligned() || g[1] <= 0 || g[5] >= 0 {
		return fmt.Errorf("%w: only north-up grids can be written", ErrMalformedGrid)
	}
	dx, dy := g[1], -g[5]

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", cols, rows)
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", formatValue(g[0]), formatValue(g[3]-float64(rows)*dy))
	if dx == dy {
		fmt.Fprintf(bw, "cellsize %s\n", formatValue(dx))
	} else {
		fmt.Fprintf(bw, "dx %s\ndy %s\n", formatValue(dx), formatValue(dy))
	}
	if r.HasNoData {
		fmt.Fprintf(bw, "NODATA_value %s\n", formatValue(r.NoData))
	}
	for i := range rows {
		for j := range cols {
			if j > 0 {
				bw.WriteByte(' ')
			}
			v := r.Band.At(i, j)
			if math.IsNaN(v) && r.HasNoData {
				v = r.NoData
			}
			bw.WriteString(formatValue(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
