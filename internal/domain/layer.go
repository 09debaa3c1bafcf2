package domain

import (
	"fmt"

	"github.com/twpayne/go-geom"
)

// DefaultCRS is assumed for sources that declare no reference system.
const DefaultCRS = "EPSG:4326"

// LayerKind is the geometry family a layer is expected to hold.
type LayerKind string

const (
	KindPolygon LayerKind = "polygon"
	KindLine    LayerKind = "line"
	KindPoint   LayerKind = "point"
)

// ParseLayerKind validates a kind read from configuration.
func ParseLayerKind(s string) (LayerKind, error) {
	switch k := LayerKind(s); k {
	case KindPolygon, KindLine, KindPoint:
		return k, nil
	default:
		return "", fmt.Errorf("unknown layer kind %q", s)
	}
}

// Accepts reports whether g belongs to the kind's geometry family.
// A nil geometry (null feature) is accepted by every kind.
func (k LayerKind) Accepts(g geom.T) bool {
	switch g.(type) {
	case nil:
		return true
	case *geom.Polygon, *geom.MultiPolygon:
		return k == KindPolygon
	case *geom.LineString, *geom.MultiLineString:
		return k == KindLine
	case *geom.Point, *geom.MultiPoint:
		return k == KindPoint
	default:
		return false
	}
}

// Feature is one record of a geometry layer.
type Feature struct {
	Geometry   geom.T
	Attributes map[string]any
}

// Layer is a read-only collection of features loaded from one source file.
// Source is the resolved path and acts as the layer's identity.
type Layer struct {
	Source   string
	Kind     LayerKind
	CRS      string
	Features []Feature
}

// WithDefaultCRS returns l with CRS set to DefaultCRS when the source
// declared none. A declared CRS is never overridden.
func WithDefaultCRS(l Layer) Layer {
	if l.CRS == "" {
		l.CRS = DefaultCRS
	}
	return l
}

// Len returns the number of features.
func (l Layer) Len() int {
	return len(l.Features)
}
