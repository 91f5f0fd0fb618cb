package raster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rasteralign/internal/geo"
)

// PRJPath returns the .prj sidecar path for a data file.
func PRJPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
}

// ReadPRJ loads the CRS declared next to path. A missing sidecar yields the
// zero CRS and no error; an unreadable or unparsable one is an error.
func ReadPRJ(path string) (geo.CRS, error) {
	data, err := os.ReadFile(PRJPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return geo.CRS{}, nil
		}
		return geo.CRS{}, fmt.Errorf("read prj: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return geo.CRS{}, nil
	}
	crs, err := geo.ParseCRS(string(data))
	if err != nil {
		return geo.CRS{}, fmt.Errorf("parse %s: %w", filepath.Base(PRJPath(path)), err)
	}
	return crs, nil
}

// WritePRJ records crs next to path. Registered codes are written as WKT;
// codes without a known WKT fall back to the "EPSG:<code>" literal. Nothing
// is written for an unknown CRS.
func WritePRJ(path string, crs geo.CRS) error {
	text := crs.WKT()
	if text == "" {
		switch {
		case crs.Known():
			text = crs.String()
		case strings.TrimSpace(crs.Definition) != "":
			text = strings.TrimSpace(crs.Definition)
		default:
			return nil
		}
	}
	if err := os.WriteFile(PRJPath(path), []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write prj: %w", err)
	}
	return nil
}
