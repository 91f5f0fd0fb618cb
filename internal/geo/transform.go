package geo

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom/proj"
)

// ErrNoDefinition is returned when a CRS has neither a registered code nor
// definition text to build a projection from.
var ErrNoDefinition = errors.New("crs has no usable definition")

// Identity passes coordinates through unchanged.
func Identity(x, y float64) (float64, float64, error) {
	return x, y, nil
}

// NewTransformer returns a point transformer from src to dst. Equal systems
// get the identity transform.
func NewTransformer(src, dst CRS) (proj.Transformer, error) {
	if src.Equal(dst) {
		return Identity, nil
	}
	srcSR, err := SpatialReference(src)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src, err)
	}
	dstSR, err := SpatialReference(dst)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", dst, err)
	}
	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("transform %s -> %s: %w", src, dst, err)
	}
	return t, nil
}

// SpatialReference parses the projection for c, preferring the registered
// proj4 definition over the text the CRS was read from.
func SpatialReference(c CRS) (*proj.SR, error) {
	def, ok := proj4For(c.Code)
	if !ok {
		def = c.Definition
	}
	if def == "" {
		return nil, ErrNoDefinition
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse projection: %w", err)
	}
	return sr, nil
}
