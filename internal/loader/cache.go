// Package loader provides the read-through cache that owns every table
// loaded from disk for the lifetime of the process.
package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

const kindBusinesses = "businesses"

// LayerReader reads a geometry layer from a file.
type LayerReader interface {
	ReadLayer(path string, kind domain.LayerKind) (domain.Layer, error)
}

// BusinessReader reads the business registry from a file.
type BusinessReader interface {
	ReadBusinesses(path string) (domain.BusinessTable, error)
}

// Cache is a read-through cache keyed by resolved source path. Entries are
// never evicted and failed loads are not cached, so a later call retries
// the read. Concurrent first requests for one path share a single read.
type Cache struct {
	layers     LayerReader
	businesses BusinessReader
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu      sync.RWMutex
	entries map[string]any
	group   singleflight.Group
}

// NewCache creates an empty cache over the given readers.
func NewCache(layers LayerReader, businesses BusinessReader, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		layers:     layers,
		businesses: businesses,
		metrics:    metrics,
		logger:     logger,
		entries:    make(map[string]any),
	}
}

// Key resolves path to the absolute, cleaned form used as cache identity.
func Key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Layer returns the layer at path, reading it on first use. The returned
// layer is shared; callers must not modify it.
func (c *Cache) Layer(path string, kind domain.LayerKind) (domain.Layer, error) {
	v, err := c.load(path, string(kind), func(key string) (any, error) {
		return c.layers.ReadLayer(key, kind)
	})
	if err != nil {
		return domain.Layer{}, err
	}
	layer, ok := v.(domain.Layer)
	if !ok || layer.Kind != kind {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrGeometryKind, fmt.Errorf("cached entry is not a %s layer", kind))
	}
	return layer, nil
}

// Businesses returns the business table at path, reading it on first use.
func (c *Cache) Businesses(path string) (domain.BusinessTable, error) {
	v, err := c.load(path, kindBusinesses, func(key string) (any, error) {
		t, err := c.businesses.ReadBusinesses(key)
		if err != nil {
			return nil, err
		}
		c.metrics.BusinessesLoaded.Set(float64(t.Len()))
		c.metrics.BusinessesDropped.Add(float64(t.Dropped))
		return t, nil
	})
	if err != nil {
		return domain.BusinessTable{}, err
	}
	t, ok := v.(domain.BusinessTable)
	if !ok {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrUnreadableFormat, fmt.Errorf("cached entry is not a business table"))
	}
	return t, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load(path, kind string, read func(key string) (any, error)) (any, error) {
	key, err := Key(path)
	if err != nil {
		return nil, err
	}

	if v, ok := c.get(key); ok {
		c.metrics.LayerCache.WithLabelValues("hit").Inc()
		return v, nil
	}
	c.metrics.LayerCache.WithLabelValues("miss").Inc()

	v, err, shared := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the entry between get and Do.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		start := time.Now()
		v, err := read(key)
		if err != nil {
			c.metrics.LoadErrors.WithLabelValues(kind).Inc()
			return nil, err
		}
		c.metrics.LayerLoadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()

		c.logger.Info("source loaded", "path", key, "kind", kind, "duration", time.Since(start))
		return v, nil
	})
	if shared {
		c.logger.Debug("load shared with concurrent caller", "path", key)
	}
	return v, err
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}
