package domain

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// boundaryTolerance is the cross-product magnitude below which a point is
// treated as collinear with a ring edge (degrees², after reprojection).
const boundaryTolerance = 1e-12

// FilterWithin returns the businesses whose point lies strictly within at
// least one polygon of the scenario layer. Both inputs are reprojected to
// EPSG:4326 first.
//
// An absent polygon layer or an empty business table is a no-op: the input
// table is returned unchanged.
func FilterWithin(t BusinessTable, polygons Maybe[Layer]) (BusinessTable, error) {
	layer, ok := polygons.Get()
	if !ok || t.Empty() {
		return t, nil
	}

	points, err := BusinessesToWGS84(t)
	if err != nil {
		return BusinessTable{}, err
	}
	area, err := ToWGS84(layer)
	if err != nil {
		return BusinessTable{}, err
	}

	idx := newPolygonIndex(area)
	out := points.derive(0)
	for _, b := range points.Rows {
		if idx.within(b.Lon, b.Lat) {
			out.Rows = append(out.Rows, b)
		}
	}
	return out, nil
}

// polygonIndex holds the polygons of a layer with their bounding boxes for a
// cheap rejection test before the ring checks.
type polygonIndex struct {
	polys []*geom.Polygon
	boxes []*geom.Bounds
}

func newPolygonIndex(l Layer) *polygonIndex {
	idx := &polygonIndex{}
	for _, f := range l.Features {
		switch g := f.Geometry.(type) {
		case *geom.Polygon:
			idx.add(g)
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				idx.add(g.Polygon(i))
			}
		}
	}
	return idx
}

func (idx *polygonIndex) add(p *geom.Polygon) {
	if p == nil || p.NumLinearRings() == 0 {
		return
	}
	idx.polys = append(idx.polys, p)
	idx.boxes = append(idx.boxes, p.Bounds())
}

func (idx *polygonIndex) within(lon, lat float64) bool {
	for i, p := range idx.polys {
		b := idx.boxes[i]
		if lon <= b.Min(0) || lon >= b.Max(0) || lat <= b.Min(1) || lat >= b.Max(1) {
			continue
		}
		if polygonContainsStrict(p, lon, lat) {
			return true
		}
	}
	return false
}

// polygonContainsStrict implements the "within" predicate: interior of the
// shell, exterior of every hole, and off every ring boundary.
func polygonContainsStrict(p *geom.Polygon, lon, lat float64) bool {
	layout := p.Layout()
	c := geom.Coord{lon, lat}

	for i := 0; i < p.NumLinearRings(); i++ {
		if onRingBoundary(p.LinearRing(i).FlatCoords(), layout.Stride(), lon, lat) {
			return false
		}
	}
	if !xy.IsPointInRing(layout, c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(layout, c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// onRingBoundary reports whether (x, y) lies on any edge of the ring.
func onRingBoundary(flat []float64, stride int, x, y float64) bool {
	n := len(flat) / stride
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		x1, y1 := flat[i*stride], flat[i*stride+1]
		x2, y2 := flat[j*stride], flat[j*stride+1]
		if onSegment(x1, y1, x2, y2, x, y) {
			return true
		}
	}
	return false
}

func onSegment(x1, y1, x2, y2, x, y float64) bool {
	cross := (x2-x1)*(y-y1) - (y2-y1)*(x-x1)
	if math.Abs(cross) > boundaryTolerance {
		return false
	}
	return x >= math.Min(x1, x2) && x <= math.Max(x1, x2) &&
		y >= math.Min(y1, y2) && y <= math.Max(y1, y2)
}
