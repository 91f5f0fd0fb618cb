package preview

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"rasteralign/internal/raster"
)

// ErrNoData is returned when a raster has no valid cell to draw.
var ErrNoData = errors.New("raster has no valid cells")

// Options controls the rendered image.
type Options struct {
	Title         string
	WidthInches   float64
	HeightInches  float64
	PaletteColors int
}

// Stats summarises the valid cells of a raster.
type Stats struct {
	Valid  int
	Total  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes Stats over the valid cells of r.
func Summarize(r *raster.Raster) Stats {
	rows, cols := r.Dims()
	values := r.ValidValues()
	s := Stats{Valid: len(values), Total: rows * cols}
	if len(values) == 0 {
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}

// grid adapts a raster to plotter.GridXYZ. Row 0 of the plot is the bottom
// raster row; nodata cells are NaN.
type grid struct {
	r        *raster.Raster
	min, max float64
}

func (g grid) Dims() (c, r int) {
	rows, cols := g.r.Dims()
	return cols, rows
}

func (g grid) Z(c, r int) float64 {
	row := g.r.Rows() - 1 - r
	v := g.r.At(row, c)
	if !g.r.IsValid(v) {
		return math.NaN()
	}
	return v
}

func (g grid) X(c int) float64 {
	x, _ := g.r.PixelCentre(0, c)
	return x
}

func (g grid) Y(r int) float64 {
	_, y := g.r.PixelCentre(g.r.Rows()-1-r, 0)
	return y
}

func (g grid) Min() float64 { return g.min }
func (g grid) Max() float64 { return g.max }

// Render draws r as a heat map and saves it to path. The image format
// follows the extension of path (.png, .svg, .pdf and others gonum/plot
// supports).
func Render(r *raster.Raster, path string, opts Options) error {
	stats := Summarize(r)
	if stats.Valid == 0 {
		return ErrNoData
	}
	if opts.PaletteColors <= 0 {
		opts.PaletteColors = 64
	}
	if opts.WidthInches <= 0 {
		opts.WidthInches = 8
	}
	if opts.HeightInches <= 0 {
		opts.HeightInches = 6
	}
	hi := stats.Max
	if hi == stats.Min {
		hi = stats.Min + 1
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = filepath.Base(r.Path)
	}
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	heat := plotter.NewHeatMap(grid{r: r, min: stats.Min, max: hi}, palette.Heat(opts.PaletteColors, 1))
	heat.NaN = color.Transparent
	heat.Rasterized = true
	p.Add(heat)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	if err := p.Save(vg.Length(opts.WidthInches)*vg.Inch, vg.Length(opts.HeightInches)*vg.Inch, path); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}
