package series

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"rasteralign/internal/logging"
	"rasteralign/internal/raster"
)

// DiffSuffix is appended to the later raster's stem to name a difference.
const DiffSuffix = "_diff"

var yearPattern = regexp.MustCompile(`\d{4}`)

// Store reads and writes rasters.
type Store interface {
	Open(path string) (*raster.Raster, error)
	Create(path string, r *raster.Raster) error
}

// Pair is one written difference.
type Pair struct {
	Earlier string
	Later   string
	Output  string
	Rows    int
	Cols    int
}

// Year returns the first four-digit number in the file name of path.
func Year(path string) (int, bool) {
	m := yearPattern.FindString(filepath.Base(path))
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// Order sorts paths by year; names without a year follow in lexical order.
// Equal years fall back to lexical order too.
func Order(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool {
		yi, oki := Year(out[i])
		yj, okj := Year(out[j])
		switch {
		case oki && okj && yi != yj:
			return yi < yj
		case oki != okj:
			return oki
		default:
			return filepath.Base(out[i]) < filepath.Base(out[j])
		}
	})
	return out
}

// Difference returns |later - earlier| over the rows and columns both
// rasters share, anchored at earlier's geotransform and CRS. Cells that are
// nodata in either input are 0, the output nodata value.
func Difference(earlier, later *raster.Raster) (*raster.Raster, error) {
	r0, c0 := earlier.Dims()
	r1, c1 := later.Dims()
	rows, cols := min(r0, r1), min(c0, c1)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("rasters share no cells (%dx%d vs %dx%d)", r0, c0, r1, c1)
	}

	var diff mat.Dense
	diff.Sub(later.Band.Slice(0, rows, 0, cols), earlier.Band.Slice(0, rows, 0, cols))
	diff.Apply(func(i, j int, v float64) float64 {
		if !earlier.IsValid(earlier.At(i, j)) || !later.IsValid(later.At(i, j)) {
			return 0
		}
		return math.Abs(v)
	}, &diff)

	out := raster.New(rows, cols, earlier.Transform, earlier.CRS)
	out.Band = &diff
	out.SetNoData(0)
	return out, nil
}

// Differ writes the differences of every consecutive raster pair in a
// directory.
type Differ struct {
	Store      Store
	Extensions []string
	Logger     *slog.Logger
}

// Run orders the rasters directly inside dir and writes one difference per
// consecutive pair into outDir. Existing difference files are not inputs.
func (d *Differ) Run(ctx context.Context, dir, outDir string) ([]Pair, error) {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	files, err := d.list(dir)
	if err != nil {
		return nil, err
	}
	files = Order(files)

	var pairs []Pair
	for i := 1; i < len(files); i++ {
		if err := ctx.Err(); err != nil {
			return pairs, err
		}
		earlier, err := d.Store.Open(files[i-1])
		if err != nil {
			return pairs, fmt.Errorf("open %s: %w", files[i-1], err)
		}
		later, err := d.Store.Open(files[i])
		if err != nil {
			return pairs, fmt.Errorf("open %s: %w", files[i], err)
		}
		diff, err := Difference(earlier, later)
		if err != nil {
			return pairs, fmt.Errorf("difference %s -> %s: %w", filepath.Base(files[i-1]), filepath.Base(files[i]), err)
		}
		base := filepath.Base(files[i])
		out := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+DiffSuffix+".asc")
		if err := d.Store.Create(out, diff); err != nil {
			return pairs, fmt.Errorf("write %s: %w", out, err)
		}
		rows, cols := diff.Dims()
		pairs = append(pairs, Pair{Earlier: files[i-1], Later: files[i], Output: out, Rows: rows, Cols: cols})
		logger.Info("difference written",
			logging.String("earlier", filepath.Base(files[i-1])),
			logging.String("later", base),
			logging.String("output", out),
			logging.Int("rows", rows),
			logging.Int("cols", cols),
		)
	}
	return pairs, nil
}

func (d *Differ) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.HasSuffix(stem, DiffSuffix) || !hasExtension(name, d.Extensions) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range exts {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}
