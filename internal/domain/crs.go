package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// epsgCodeRe pulls the numeric code out of "EPSG:31982",
// "urn:ogc:def:crs:EPSG::4326" and "urn:ogc:def:crs:EPSG:6.6:4326".
var epsgCodeRe = regexp.MustCompile(`(?i)epsg:(?:[\d.]*:)?(\d+)$`)

// Ellipsoid semi-major axes and flattenings.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	grs80F = 1 / 298.257222101

	utmScale      = 0.9996
	utmFalseEast  = 500000.0
	utmFalseNorth = 10000000.0
)

// unprojectFunc maps source coordinates (x, y) to WGS-84 (lon, lat).
type unprojectFunc func(x, y float64) (lon, lat float64)

// EPSGCode extracts the EPSG code from a CRS identifier. OGC CRS84 maps to
// 4326. ok is false for identifiers that carry no EPSG code.
func EPSGCode(crs string) (code int, ok bool) {
	s := strings.TrimSpace(crs)
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "CRS84") {
		return 4326, true
	}
	m := epsgCodeRe.FindStringSubmatch(s)
	if len(m) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsGeographicWGS84 reports whether crs needs no transformation before a
// spatial comparison.
func IsGeographicWGS84(crs string) bool {
	code, ok := EPSGCode(crs)
	return ok && (code == 4326 || code == 4674)
}

// unprojectorFor returns the inverse projection for crs, or nil when the
// CRS is already geographic WGS-84.
func unprojectorFor(crs string) (unprojectFunc, error) {
	if IsGeographicWGS84(crs) {
		return nil, nil
	}
	code, ok := EPSGCode(crs)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCRS, crs)
	}
	switch {
	case code == 3857 || code == 900913 || code == 3785:
		return inverseWebMercator, nil
	case code >= 32601 && code <= 32660:
		return inverseUTM(code-32600, false, wgs84F), nil
	case code >= 32701 && code <= 32760:
		return inverseUTM(code-32700, true, wgs84F), nil
	case code >= 31977 && code <= 31985:
		return inverseUTM(code-31960, true, grs80F), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCRS, crs)
	}
}

// ToWGS84 returns l expressed in EPSG:4326. Layers already in a geographic
// WGS-84 system are returned as is; otherwise a new layer is built and the
// input is left untouched.
func ToWGS84(l Layer) (Layer, error) {
	l = WithDefaultCRS(l)
	fn, err := unprojectorFor(l.CRS)
	if err != nil {
		return Layer{}, err
	}
	if fn == nil {
		return l, nil
	}

	out := Layer{Source: l.Source, Kind: l.Kind, CRS: DefaultCRS, Features: make([]Feature, len(l.Features))}
	for i, f := range l.Features {
		g, err := transformGeometry(f.Geometry, fn)
		if err != nil {
			return Layer{}, fmt.Errorf("reproject feature %d of %s: %w", i, l.Source, err)
		}
		out.Features[i] = Feature{Geometry: g, Attributes: f.Attributes}
	}
	return out, nil
}

// BusinessesToWGS84 returns t with coordinates in EPSG:4326. Lon and Lat are
// read as projected x and y when the table is in a projected CRS.
func BusinessesToWGS84(t BusinessTable) (BusinessTable, error) {
	if t.CRS == "" {
		t.CRS = DefaultCRS
	}
	fn, err := unprojectorFor(t.CRS)
	if err != nil {
		return BusinessTable{}, err
	}
	if fn == nil {
		return t, nil
	}

	out := t.derive(len(t.Rows))
	out.CRS = DefaultCRS
	for _, b := range t.Rows {
		b.Lon, b.Lat = fn(b.Lon, b.Lat)
		out.Rows = append(out.Rows, b)
	}
	return out, nil
}

func transformGeometry(g geom.T, fn unprojectFunc) (geom.T, error) {
	if g == nil {
		return nil, nil
	}
	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(t.Layout(), transformFlat(t, fn)), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(t.Layout(), transformFlat(t, fn)), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(t.Layout(), transformFlat(t, fn)), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(t.Layout(), transformFlat(t, fn), t.Ends()), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), transformFlat(t, fn), t.Ends()), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), transformFlat(t, fn), t.Endss()), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrGeometryKind, g)
	}
}

func transformFlat(g geom.T, fn unprojectFunc) []float64 {
	src := g.FlatCoords()
	stride := g.Stride()
	dst := make([]float64, len(src))
	copy(dst, src)
	for i := 0; i+1 < len(dst); i += stride {
		dst[i], dst[i+1] = fn(dst[i], dst[i+1])
	}
	return dst
}

func inverseWebMercator(x, y float64) (float64, float64) {
	lon := x / wgs84A * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/wgs84A)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// inverseUTM builds the transverse Mercator inverse (Snyder, USGS PP 1395,
// eq. 8-17 to 8-25) for one zone and ellipsoid flattening.
func inverseUTM(zone int, south bool, flattening float64) unprojectFunc {
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	lon0 := float64(zone*6-183) * math.Pi / 180
	m1 := wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256)

	return func(easting, northing float64) (float64, float64) {
		x := easting - utmFalseEast
		y := northing
		if south {
			y -= utmFalseNorth
		}

		mu := y / utmScale / m1
		phi1 := mu +
			(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
			(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
			(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
			(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

		sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
		tan1 := math.Tan(phi1)
		n1 := wgs84A / math.Sqrt(1-e2*sin1*sin1)
		t1 := tan1 * tan1
		c1 := ep2 * cos1 * cos1
		r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sin1*sin1, 1.5)
		d := x / (n1 * utmScale)

		lat := phi1 - (n1*tan1/r1)*(d*d/2-
			(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
			(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
		lon := lon0 + (d-
			(1+2*t1+c1)*math.Pow(d, 3)/6+
			(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cos1

		return lon * 180 / math.Pi, lat * 180 / math.Pi
	}
}
