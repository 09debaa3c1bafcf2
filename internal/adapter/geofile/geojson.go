package geofile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// featureCollection mirrors a GeoJSON FeatureCollection. Geometries are kept
// raw and decoded one by one so that foreign members (numeric ids, legacy
// crs) never fail the whole document.
type featureCollection struct {
	Type     string       `json:"type"`
	CRS      *namedCRS    `json:"crs,omitempty"`
	Features []rawFeature `json:"features"`
}

type namedCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type rawFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

func readGeoJSON(path string) (domain.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}
	layer, err := DecodeGeoJSON(data)
	if err != nil {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}
	return layer, nil
}

// DecodeGeoJSON parses a FeatureCollection. The CRS is taken from the
// legacy top-level "crs" member and left empty when absent.
func DecodeGeoJSON(data []byte) (domain.Layer, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return domain.Layer{}, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return domain.Layer{}, fmt.Errorf("decode feature collection: type %q", fc.Type)
	}

	layer := domain.Layer{Features: make([]domain.Feature, 0, len(fc.Features))}
	if fc.CRS != nil {
		layer.CRS = fc.CRS.Properties.Name
	}
	for i, rf := range fc.Features {
		g, err := decodeGeometry(rf.Geometry)
		if err != nil {
			return domain.Layer{}, fmt.Errorf("decode feature %d: %w", i, err)
		}
		props := rf.Properties
		if props == nil {
			props = map[string]any{}
		}
		layer.Features = append(layer.Features, domain.Feature{Geometry: g, Attributes: props})
	}
	return layer, nil
}

func decodeGeometry(raw json.RawMessage) (geom.T, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return g, nil
}

// EncodeGeoJSON writes l as a FeatureCollection. A declared CRS is written
// as a legacy named crs member; features without geometry are skipped.
func EncodeGeoJSON(w io.Writer, l domain.Layer) error {
	features := make([]*geojson.Feature, 0, len(l.Features))
	for _, f := range l.Features {
		if f.Geometry == nil {
			continue
		}
		features = append(features, &geojson.Feature{Geometry: f.Geometry, Properties: f.Attributes})
	}

	out := struct {
		Type     string             `json:"type"`
		CRS      *namedCRS          `json:"crs,omitempty"`
		Features []*geojson.Feature `json:"features"`
	}{Type: "FeatureCollection", Features: features}
	if l.CRS != "" {
		out.CRS = &namedCRS{Type: "name"}
		out.CRS.Properties.Name = l.CRS
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	return nil
}
