package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyDefinition reports CRS text that carried nothing to parse.
var ErrEmptyDefinition = errors.New("empty crs definition")

// CRS identifies a coordinate reference system. Code is the EPSG authority
// code, or zero when none could be determined. Definition keeps the text the
// CRS was parsed from (WKT or proj4) so unknown systems can still be used.
type CRS struct {
	Code       int
	Definition string
}

// EPSG returns the CRS for an EPSG authority code.
func EPSG(code int) CRS {
	return CRS{Code: code}
}

var (
	authorityLiteral = regexp.MustCompile(`(?i)^(?:urn:ogc:def:crs:)?epsg:{1,2}(\d+)$`)
	proj4Init        = regexp.MustCompile(`(?i)\+init=epsg:(\d+)`)
	utmName          = regexp.MustCompile(`^wgs[ _]?(?:84|1984)[ _/]+utm[ _]zone[ _](\d{1,2})([ns])$`)
)

// ParseCRS interprets CRS text as found in a .prj sidecar, a config value or
// a command-line flag. Accepted forms are "EPSG:<code>", OGC URNs, WKT1/WKT2
// and proj4 strings. Text without a recognizable authority keeps its
// definition and reports Code zero.
func ParseCRS(text string) (CRS, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return CRS{}, ErrEmptyDefinition
	}
	if m := authorityLiteral.FindStringSubmatch(trimmed); m != nil {
		code, err := strconv.Atoi(m[1])
		if err != nil || code <= 0 {
			return CRS{}, fmt.Errorf("invalid epsg code %q", m[1])
		}
		return EPSG(code), nil
	}
	if strings.HasPrefix(trimmed, "+") {
		if m := proj4Init.FindStringSubmatch(trimmed); m != nil {
			if code, err := strconv.Atoi(m[1]); err == nil && code > 0 {
				return CRS{Code: code, Definition: trimmed}, nil
			}
		}
		return CRS{Definition: trimmed}, nil
	}
	if !looksLikeWKT(trimmed) {
		return CRS{}, fmt.Errorf("unrecognized crs definition %q", abbreviate(trimmed, 48))
	}
	root, err := parseWKT(trimmed)
	if err != nil {
		return CRS{}, fmt.Errorf("parse wkt: %w", err)
	}
	code := root.authorityCode()
	if code == 0 {
		code = codeForName(root.keyword, root.name())
	}
	return CRS{Code: code, Definition: trimmed}, nil
}

// IsZero reports whether nothing is known about the CRS.
func (c CRS) IsZero() bool {
	return c.Code == 0 && strings.TrimSpace(c.Definition) == ""
}

// Known reports whether the CRS carries an authority code.
func (c CRS) Known() bool {
	return c.Code > 0
}

// Equal compares by authority code when either side has one, and by
// definition text otherwise.
func (c CRS) Equal(other CRS) bool {
	if c.Code > 0 || other.Code > 0 {
		return c.Code == other.Code
	}
	a := strings.TrimSpace(c.Definition)
	return a != "" && a == strings.TrimSpace(other.Definition)
}

func (c CRS) String() string {
	switch {
	case c.Code > 0:
		return fmt.Sprintf("EPSG:%d", c.Code)
	case strings.TrimSpace(c.Definition) != "":
		return "custom"
	default:
		return "unknown"
	}
}

// MarshalText renders the CRS the same way String does.
func (c CRS) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// WKT returns a WKT1 rendering suitable for a .prj sidecar, or "" when the
// CRS has neither a registered code nor a WKT definition.
func (c CRS) WKT() string {
	if wkt, ok := wktFor(c.Code); ok {
		return wkt
	}
	if looksLikeWKT(strings.TrimSpace(c.Definition)) {
		return strings.TrimSpace(c.Definition)
	}
	return ""
}

func looksLikeWKT(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range []string{"GEOGCS", "PROJCS", "GEOCCS", "COMPD_CS", "GEOGCRS", "PROJCRS", "GEODCRS", "BOUNDCRS", "COMPOUNDCRS"} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}

func codeForName(keyword, name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	switch keyword {
	case "GEOGCS", "GEOGCRS", "GEODCRS":
		switch name {
		case "wgs 84", "wgs84", "gcs_wgs_1984":
			return 4326
		case "nad83", "gcs_north_american_1983":
			return 4269
		}
	case "PROJCS", "PROJCRS":
		switch name {
		case "wgs 84 / pseudo-mercator", "wgs_1984_web_mercator_auxiliary_sphere", "wgs 84 / popular visualisation pseudo-mercator":
			return 3857
		}
		if m := utmName.FindStringSubmatch(name); m != nil {
			zone, _ := strconv.Atoi(m[1])
			if zone < 1 || zone > 60 {
				return 0
			}
			if m[2] == "s" {
				return 32700 + zone
			}
			return 32600 + zone
		}
	}
	return 0
}

func abbreviate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
