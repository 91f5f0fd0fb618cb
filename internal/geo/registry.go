package geo

import "fmt"

// webMercatorProj4 is the spherical mercator used by web map tiles.
const webMercatorProj4 = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

const wgs84GeogWKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

const nad83GeogWKT = `GEOGCS["NAD83",DATUM["North_American_Datum_1983",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]],AUTHORITY["EPSG","6269"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4269"]]`

const webMercatorWKT = `PROJCS["WGS 84 / Pseudo-Mercator",` + wgs84GeogWKT + `,PROJECTION["Mercator_1SP"],PARAMETER["central_meridian",0],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","3857"]]`

const utmWKTFormat = `PROJCS["WGS 84 / UTM zone %d%s",` + wgs84GeogWKT + `,PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",%d],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",%d],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","%d"]]`

// utmZone decodes the WGS 84 UTM codes 32601-32660 (north) and 32701-32760
// (south).
func utmZone(code int) (zone int, south bool, ok bool) {
	switch {
	case code > 32600 && code <= 32660:
		return code - 32600, false, true
	case code > 32700 && code <= 32760:
		return code - 32700, true, true
	default:
		return 0, false, false
	}
}

func proj4For(code int) (string, bool) {
	switch code {
	case 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", true
	case 4269:
		return "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs", true
	case 3857, 900913:
		return webMercatorProj4, true
	}
	if zone, south, ok := utmZone(code); ok {
		if south {
			return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone), true
		}
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone), true
	}
	return "", false
}

func wktFor(code int) (string, bool) {
	switch code {
	case 4326:
		return wgs84GeogWKT, true
	case 4269:
		return nad83GeogWKT, true
	case 3857:
		return webMercatorWKT, true
	}
	if zone, south, ok := utmZone(code); ok {
		hemisphere, falseNorthing := "N", 0
		if south {
			hemisphere, falseNorthing = "S", 10000000
		}
		return fmt.Sprintf(utmWKTFormat, zone, hemisphere, zone*6-183, falseNorthing, code), true
	}
	return "", false
}

// Registered reports whether transformers for code can be built without a
// definition string.
func Registered(code int) bool {
	_, ok := proj4For(code)
	return ok
}
