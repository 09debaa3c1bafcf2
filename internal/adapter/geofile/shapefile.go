package geofile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

func readShapefile(path string) (domain.Layer, error) {
	crs, err := readPRJ(path)
	if err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnsupportedCRS, err)
	}

	// go-shp reports a missing attribute table as zero fields.
	dbf := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(dbf); err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, fmt.Errorf("attribute table: %w", err))
	}

	r, err := shp.Open(path)
	if err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}
	defer r.Close()

	fields := r.Fields()
	layer := domain.Layer{CRS: crs}
	for r.Next() {
		n, shape := r.Shape()
		g, err := shapeGeometry(shape)
		if err != nil {
			return domain.Layer{}, domain.NewLoadError(path, domain.ErrGeometryKind, fmt.Errorf("record %d: %w", n, err))
		}
		attrs := make(map[string]any, len(fields))
		for i, f := range fields {
			attrs[f.String()] = attributeValue(f, r.ReadAttribute(n, i))
		}
		layer.Features = append(layer.Features, domain.Feature{Geometry: g, Attributes: attrs})
	}
	if err := r.Err(); err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}
	return layer, nil
}

// attributeValue converts a DBF cell. Numeric columns become float64 and
// blank cells nil.
func attributeValue(f shp.Field, raw string) any {
	v := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if v == "" {
		return nil
	}
	switch f.Fieldtype {
	case 'N', 'F':
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v
		}
		return n
	default:
		return v
	}
}

func shapeGeometry(s shp.Shape) (geom.T, error) {
	switch t := s.(type) {
	case nil, *shp.Null:
		return nil, nil
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y}), nil
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y}), nil
	case *shp.PointM:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y}), nil
	case *shp.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, flatPoints(t.Points)), nil
	case *shp.PolyLine:
		return lineGeometry(t.Parts, t.Points), nil
	case *shp.PolyLineZ:
		return lineGeometry(t.Parts, t.Points), nil
	case *shp.PolyLineM:
		return lineGeometry(t.Parts, t.Points), nil
	case *shp.Polygon:
		return polygonGeometry(t.Parts, t.Points)
	case *shp.PolygonZ:
		return polygonGeometry(t.Parts, t.Points)
	case *shp.PolygonM:
		return polygonGeometry(t.Parts, t.Points)
	default:
		return nil, fmt.Errorf("unsupported shape %T", s)
	}
}

func flatPoints(pts []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// splitParts returns the flat coordinates of each part.
func splitParts(parts []int32, pts []shp.Point) [][]float64 {
	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := len(pts)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) >= end || end > len(pts) {
			continue
		}
		out = append(out, flatPoints(pts[start:end]))
	}
	return out
}

func lineGeometry(parts []int32, pts []shp.Point) geom.T {
	lines := splitParts(parts, pts)
	if len(lines) == 1 {
		return geom.NewLineStringFlat(geom.XY, lines[0])
	}
	var (
		flat []float64
		ends []int
	)
	for _, l := range lines {
		flat = append(flat, l...)
		ends = append(ends, len(flat))
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
}

// polygonGeometry groups shapefile rings into polygons. Outer rings are
// clockwise and each counter-clockwise ring is a hole of the outer ring
// before it.
func polygonGeometry(parts []int32, pts []shp.Point) (geom.T, error) {
	var (
		polys   []*geom.Polygon
		current [][]float64
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		var (
			flat []float64
			ends []int
		)
		for _, ring := range current {
			flat = append(flat, ring...)
			ends = append(ends, len(flat))
		}
		polys = append(polys, geom.NewPolygonFlat(geom.XY, flat, ends))
		current = nil
	}

	for _, ring := range splitParts(parts, pts) {
		if len(ring) < 8 {
			continue
		}
		hole := xy.IsRingCounterClockwise(geom.XY, ring)
		if !hole || len(current) == 0 {
			flush()
		}
		current = append(current, ring)
	}
	flush()

	switch len(polys) {
	case 0:
		return nil, nil
	case 1:
		return polys[0], nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, p := range polys {
		if err := mp.Push(p); err != nil {
			return nil, err
		}
	}
	return mp, nil
}

// readPRJ resolves the CRS declared in the .prj sidecar. A missing sidecar
// means the shapefile declares no CRS.
func readPRJ(shpPath string) (string, error) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, ext := range []string{".prj", ".PRJ"} {
		data, err := os.ReadFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return CRSFromWKT(string(data))
	}
	return "", nil
}
