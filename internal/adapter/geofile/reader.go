// Package geofile reads vector layers from GeoJSON and ESRI shapefiles.
package geofile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
)

// Reader loads geometry layers from disk. It is stateless; caching is the
// loader's job.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a layer reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadLayer loads the file at path and checks that every geometry belongs to
// kind. The layer CRS is the one the file declares; DefaultCRS is applied
// only when it declares none.
func (r *Reader) ReadLayer(path string, kind domain.LayerKind) (domain.Layer, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Layer{}, domain.NewLoadError(path, domain.ErrMissingFile, err)
		}
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, err)
	}

	var (
		layer domain.Layer
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		layer, err = readGeoJSON(path)
	case ".shp":
		layer, err = readShapefile(path)
	default:
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, fmt.Errorf("unsupported extension %q", ext))
	}
	if err != nil {
		return domain.Layer{}, err
	}

	for i, f := range layer.Features {
		if !kind.Accepts(f.Geometry) {
			return domain.Layer{}, domain.NewLoadError(path, domain.ErrGeometryKind,
				fmt.Errorf("feature %d is %T, want %s", i, f.Geometry, kind))
		}
	}

	layer.Source = path
	layer.Kind = kind
	declared := layer.CRS
	layer = domain.WithDefaultCRS(layer)

	r.logger.Debug("layer read",
		"path", path,
		"kind", kind,
		"features", layer.Len(),
		"crs", layer.CRS,
		"crs_declared", declared != "",
	)
	return layer, nil
}
