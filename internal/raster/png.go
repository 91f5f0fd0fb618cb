package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rasteralign/internal/geo"
)

// ErrNoWorldFile is returned for an image that has no georeferencing sidecar.
var ErrNoWorldFile = errors.New("no world file")

// WorldFileCandidates lists the sidecar names checked for an image, in order.
func WorldFileCandidates(path string) []string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return []string{base + ".pgw", base + ".pngw", base + ".wld", path + "w"}
}

// ReadWorldFile parses the six-line world file format. The file stores the
// centre of the top-left pixel; the returned transform is corner based.
func ReadWorldFile(path string) (geo.GeoTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return geo.GeoTransform{}, err
	}
	defer f.Close()

	var vals []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return geo.GeoTransform{}, fmt.Errorf("world file %s line %d: %w", filepath.Base(path), len(vals)+1, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return geo.GeoTransform{}, err
	}
	if len(vals) != 6 {
		return geo.GeoTransform{}, fmt.Errorf("world file %s: expected 6 values, found %d", filepath.Base(path), len(vals))
	}
	a, d, b, e, c, f0 := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	return geo.GeoTransform{c - a/2 - b/2, a, b, f0 - d/2 - e/2, d, e}, nil
}

// ReadPNG decodes a georeferenced single-band PNG. Grey and paletted images
// keep their stored sample; other colour models are reduced to 8-bit
// luminance. Fully transparent pixels become NaN.
func ReadPNG(path string) (*Raster, error) {
	var transform geo.GeoTransform
	found := false
	for _, candidate := range WorldFileCandidates(path) {
		g, err := ReadWorldFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		transform, found = g, true
		break
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoWorldFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	bounds := img.Bounds()
	r := New(bounds.Dy(), bounds.Dx(), transform, geo.CRS{})
	if r.Band == nil {
		return nil, fmt.Errorf("decode png: empty image")
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r.Band.Set(y-bounds.Min.Y, x-bounds.Min.X, sample(img, x, y))
		}
	}
	return r, nil
}

func sample(img image.Image, x, y int) float64 {
	switch im := img.(type) {
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(im.Gray16At(x, y).Y)
	case *image.Paletted:
		if _, _, _, a := im.At(x, y).RGBA(); a == 0 {
			return math.NaN()
		}
		return float64(im.ColorIndexAt(x, y))
	}
	c := img.At(x, y)
	if _, _, _, a := c.RGBA(); a == 0 {
		return math.NaN()
	}
	return float64(color.GrayModel.Convert(c).(color.Gray).Y)
}
