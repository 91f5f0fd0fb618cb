package vector

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"rasteralign/internal/geo"
	"rasteralign/internal/raster"
)

// Layer is the geometry content of one vector file.
type Layer struct {
	Path       string
	CRS        geo.CRS
	Geometries []geom.Geom
}

// Bounds returns the extent of every geometry in the layer. ok is false for
// a layer without geometries.
func (l *Layer) Bounds() (geo.Extent, bool) {
	if len(l.Geometries) == 0 {
		return geo.Extent{}, false
	}
	ext := geo.ExtentFromBounds(l.Geometries[0].Bounds(), l.CRS)
	for _, g := range l.Geometries[1:] {
		b := g.Bounds()
		ext.XMin = math.Min(ext.XMin, b.Min.X)
		ext.YMin = math.Min(ext.YMin, b.Min.Y)
		ext.XMax = math.Max(ext.XMax, b.Max.X)
		ext.YMax = math.Max(ext.YMax, b.Max.Y)
	}
	return ext, true
}

// Transform returns a copy of the layer reprojected into dst. A layer whose
// CRS is unknown or already dst is returned relabelled.
func (l *Layer) Transform(dst geo.CRS) (*Layer, error) {
	out := &Layer{Path: l.Path, CRS: dst}
	if l.CRS.IsZero() || l.CRS.Equal(dst) {
		out.Geometries = l.Geometries
		return out, nil
	}
	t, err := geo.NewTransformer(l.CRS, dst)
	if err != nil {
		return nil, err
	}
	out.Geometries = make([]geom.Geom, 0, len(l.Geometries))
	for i, g := range l.Geometries {
		gg, err := g.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("transform geometry %d: %w", i, err)
		}
		out.Geometries = append(out.Geometries, gg)
	}
	return out, nil
}

// ShapefileStore reads ESRI shapefiles. The CRS comes from the .prj sidecar.
type ShapefileStore struct{}

// OpenLayer decodes every shape in the file at path.
func (ShapefileStore) OpenLayer(path string) (*Layer, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".shp" {
		return nil, fmt.Errorf("%s: unsupported vector format %q", filepath.Base(path), ext)
	}
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer dec.Close()

	layer := &Layer{Path: path}
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		layer.Geometries = append(layer.Geometries, g)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode shapefile: %w", err)
	}

	crs, err := raster.ReadPRJ(path)
	if err != nil {
		return nil, err
	}
	layer.CRS = crs
	return layer, nil
}
