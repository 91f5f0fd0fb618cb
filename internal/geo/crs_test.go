package geo

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCRSAuthorityLiterals(t *testing.T) {
	cases := map[string]int{
		"EPSG:4326":                    4326,
		"epsg:3857":                    3857,
		" EPSG:32633 ":                 32633,
		"urn:ogc:def:crs:EPSG::4269":   4269,
		"+init=epsg:4326 +no_defs":     4326,
		wgs84GeogWKT:                   4326,
		webMercatorWKT:                 3857,
		`PROJCRS["x",ID["EPSG",32718]]`: 32718,
	}
	for text, want := range cases {
		got, err := ParseCRS(text)
		if err != nil {
			t.Fatalf("ParseCRS(%q) error: %v", abbreviate(text, 30), err)
		}
		if got.Code != want {
			t.Errorf("ParseCRS(%q) code = %d, want %d", abbreviate(text, 30), got.Code, want)
		}
	}
}

func TestParseCRSUsesRootAuthority(t *testing.T) {
	// The datum, spheroid and unit authorities appear before the root one.
	crs, err := ParseCRS(nad83GeogWKT)
	if err != nil {
		t.Fatalf("ParseCRS: %v", err)
	}
	if crs.Code != 4269 {
		t.Fatalf("expected root authority 4269, got %d", crs.Code)
	}
}

func TestParseCRSFallsBackToName(t *testing.T) {
	esri := `PROJCS["WGS_1984_UTM_Zone_33N",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["Central_Meridian",15.0],UNIT["Meter",1.0]]`
	crs, err := ParseCRS(esri)
	if err != nil {
		t.Fatalf("ParseCRS: %v", err)
	}
	if crs.Code != 32633 {
		t.Fatalf("expected 32633 from name, got %d", crs.Code)
	}
	if crs.Definition != esri {
		t.Fatal("definition text should be preserved")
	}
}

func TestParseCRSUnknownKeepsDefinition(t *testing.T) {
	text := `PROJCS["Local grid",GEOGCS["Custom",DATUM["x",SPHEROID["s",6378000,300]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],UNIT["metre",1]]`
	crs, err := ParseCRS(text)
	if err != nil {
		t.Fatalf("ParseCRS: %v", err)
	}
	if crs.Known() {
		t.Fatalf("expected no authority code, got %d", crs.Code)
	}
	if crs.IsZero() {
		t.Fatal("expected definition to be kept")
	}
	if crs.String() != "custom" {
		t.Fatalf("String() = %q", crs.String())
	}
}

func TestParseCRSErrors(t *testing.T) {
	if _, err := ParseCRS("   "); !errors.Is(err, ErrEmptyDefinition) {
		t.Fatalf("expected ErrEmptyDefinition, got %v", err)
	}
	if _, err := ParseCRS("not a crs"); err == nil {
		t.Fatal("expected error for garbage text")
	}
	if _, err := ParseCRS(`GEOGCS["broken"`); err == nil || !strings.Contains(err.Error(), "wkt") {
		t.Fatalf("expected wkt parse error, got %v", err)
	}
}

func TestCRSEqual(t *testing.T) {
	a := CRS{Code: 4326, Definition: wgs84GeogWKT}
	if !a.Equal(EPSG(4326)) {
		t.Fatal("codes should decide equality")
	}
	if a.Equal(EPSG(3857)) {
		t.Fatal("different codes must differ")
	}
	custom := CRS{Definition: "+proj=tmerc +lon_0=7"}
	if !custom.Equal(CRS{Definition: " +proj=tmerc +lon_0=7 "}) {
		t.Fatal("identical definitions should compare equal")
	}
	if (CRS{}).Equal(CRS{}) {
		t.Fatal("two unknown systems are not provably equal")
	}
}

func TestWKTForUTM(t *testing.T) {
	wkt := EPSG(32733).WKT()
	if !strings.Contains(wkt, `UTM zone 33S`) || !strings.Contains(wkt, `"false_northing",10000000`) {
		t.Fatalf("unexpected utm wkt: %s", wkt)
	}
	back, err := ParseCRS(wkt)
	if err != nil || back.Code != 32733 {
		t.Fatalf("round trip: code=%d err=%v", back.Code, err)
	}
	if EPSG(2056).WKT() != "" {
		t.Fatal("unregistered code without definition should have no wkt")
	}
}

