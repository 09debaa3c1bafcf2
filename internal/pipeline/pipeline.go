// Package pipeline recomputes the dashboard view for one user selection:
// spatial filter, attribute filter, aggregation and presentation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flood-impact-service/internal/config"
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/observability"
	"github.com/couchcryptid/flood-impact-service/internal/present"
)

// Name shown in the scenario selector for the empty choice.
const noScenarioName = "Nenhum"

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownLayer    = errors.New("unknown layer")
	ErrNotInitialized  = errors.New("dashboard data not loaded")
)

// Loader returns tables read through the process-wide cache.
type Loader interface {
	Layer(path string, kind domain.LayerKind) (domain.Layer, error)
	Businesses(path string) (domain.BusinessTable, error)
}

// SnapshotPublisher ships comparative snapshots to downstream consumers.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap domain.MetricsSnapshot) error
}

// Options configure a Dashboard.
type Options struct {
	// Catalog with file paths already resolved against the data directory.
	Catalog         config.Catalog
	DefaultScenario string
	Tiles           string
}

// Dashboard owns the loaded sources and renders views from them. After Init
// it is safe for concurrent use.
type Dashboard struct {
	opts      Options
	loader    Loader
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready      atomic.Bool
	businesses domain.Maybe[domain.BusinessTable]
	notices    []string
}

// New creates a Dashboard. publisher may be nil to disable snapshot
// publishing.
func New(opts Options, loader Loader, publisher SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if opts.DefaultScenario == "" {
		opts.DefaultScenario = domain.ScenarioNone
	}
	return &Dashboard{
		opts:       opts,
		loader:     loader,
		publisher:  publisher,
		logger:     logger.With("component", "dashboard"),
		metrics:    metrics,
		businesses: domain.None[domain.BusinessTable](),
	}
}

// Init loads every source named by the catalog. A geometry layer that
// cannot be read is fatal. A business workbook that cannot be read leaves
// the business layer absent and adds a notice to every view.
func (d *Dashboard) Init(_ context.Context) error {
	for _, l := range d.opts.Catalog.Layers {
		kind, err := domain.ParseLayerKind(l.Kind)
		if err != nil {
			return fmt.Errorf("layer %s: %w", l.Key, err)
		}
		layer, err := d.loader.Layer(l.File, kind)
		if err != nil {
			return fmt.Errorf("layer %s: %w", l.Key, err)
		}
		d.logger.Info("layer ready", "layer", l.Key, "features", layer.Len(), "crs", layer.CRS)
	}
	for _, s := range d.opts.Catalog.Scenarios {
		layer, err := d.loader.Layer(s.File, domain.KindPolygon)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s.Key, err)
		}
		d.logger.Info("scenario ready", "scenario", s.Key, "features", layer.Len(), "crs", layer.CRS)
	}

	if path := d.opts.Catalog.Businesses; path != "" {
		t, err := d.loadBusinesses(path)
		if err != nil {
			d.logger.Error("business data unavailable", "path", path, "error", err)
			d.notices = append(d.notices, "Erro ao carregar os dados das empresas: "+err.Error())
		} else {
			d.businesses = domain.Some(t)
		}
	}

	d.ready.Store(true)
	d.metrics.DataReady.Set(1)
	return nil
}

func (d *Dashboard) loadBusinesses(path string) (domain.BusinessTable, error) {
	t, err := d.loader.Businesses(path)
	if err != nil {
		return domain.BusinessTable{}, err
	}
	if t.Dropped > 0 {
		d.logger.Warn("business rows without coordinates dropped", "dropped", t.Dropped)
	}
	return domain.BusinessesToWGS84(t)
}

// CheckReadiness returns nil once Init has completed.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return ErrNotInitialized
	}
	return nil
}

// Notices lists load problems the user should see.
func (d *Dashboard) Notices() []string {
	return append([]string(nil), d.notices...)
}

// Scenarios lists the selector entries, "none" first.
func (d *Dashboard) Scenarios() []ScenarioInfo {
	out := []ScenarioInfo{{Key: domain.ScenarioNone, Name: noScenarioName, Default: d.opts.DefaultScenario == domain.ScenarioNone}}
	for _, s := range d.opts.Catalog.Scenarios {
		out = append(out, ScenarioInfo{Key: s.Key, Name: s.Name, Default: s.Key == d.opts.DefaultScenario})
	}
	return out
}

// HasScenario reports whether key is a selectable scenario.
func (d *Dashboard) HasScenario(key string) bool {
	if key == domain.ScenarioNone {
		return true
	}
	_, ok := d.opts.Catalog.Scenario(key)
	return ok
}

// LayerGeoJSON returns a municipal or flood layer in EPSG:4326 for the map
// client.
func (d *Dashboard) LayerGeoJSON(key string) (domain.Layer, error) {
	var (
		path string
		kind domain.LayerKind
	)
	if s, ok := d.opts.Catalog.Scenario(key); ok {
		path, kind = s.File, domain.KindPolygon
	} else {
		src, ok := d.layerSource(key)
		if !ok {
			return domain.Layer{}, fmt.Errorf("%w: %q", ErrUnknownLayer, key)
		}
		k, err := domain.ParseLayerKind(src.Kind)
		if err != nil {
			return domain.Layer{}, err
		}
		path, kind = src.File, k
	}
	layer, err := d.loader.Layer(path, kind)
	if err != nil {
		return domain.Layer{}, err
	}
	return domain.ToWGS84(layer)
}

// Render runs one recomputation pass for sel.
func (d *Dashboard) Render(ctx context.Context, sel Selection) (View, error) {
	start := time.Now()
	view, err := d.render(ctx, sel)
	if err != nil {
		d.metrics.RenderErrors.Inc()
		return View{}, err
	}
	d.metrics.Renders.WithLabelValues(string(view.Metrics.Mode)).Inc()
	d.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	return view, nil
}

func (d *Dashboard) render(ctx context.Context, sel Selection) (View, error) {
	if !d.ready.Load() {
		return View{}, ErrNotInitialized
	}
	scenario, err := d.scenario(sel.Scenario)
	if err != nil {
		return View{}, err
	}

	view := View{
		Map:      present.NewMapView(d.opts.Tiles),
		Scenario: ScenarioInfo{Key: scenario.Key, Name: scenario.Name, Default: scenario.Key == d.opts.DefaultScenario},
		Notices:  d.Notices(),
		Metrics:  present.Panel{Mode: domain.ModeNone, Cards: []present.Card{}},
	}
	if view.Overlays, err = d.overlays(scenario, sel); err != nil {
		return View{}, err
	}

	full, ok := d.businesses.Get()
	if !ok {
		return view, nil
	}
	comparative := sel.AffectedOnly && scenario.Selected()

	base := full
	if comparative {
		if base, err = domain.FilterWithin(full, scenario.Layer); err != nil {
			return View{}, fmt.Errorf("spatial filter %s: %w", scenario.Key, err)
		}
	}

	showBusinesses := sel.Visible[present.LayerBusinesses]
	if showBusinesses {
		options := domain.FilterOptions(base)
		constraints := sel.Constraints
		if !sel.StatusExplicit {
			constraints.Statuses = domain.DefaultStatuses(options)
		}
		filtered := domain.FilterAttributes(base, constraints)
		view.Filters = &FilterState{Options: options, Selected: normalize(constraints)}
		if !filtered.Empty() {
			markers := present.Markers(filtered)
			view.Businesses = &markers
		}
	}

	switch {
	case comparative:
		snap := domain.NewComparativeSnapshot(scenario.Key, full, base)
		view.Snapshot = &snap
		view.Metrics = present.Cards(snap, scenario.Name)
		d.publish(ctx, snap)
	case showBusinesses:
		snap := domain.NewOverviewSnapshot(scenario.Key, full)
		view.Snapshot = &snap
		view.Metrics = present.Cards(snap, scenario.Name)
	}
	return view, nil
}

// scenario resolves key to a scenario with its flood layer loaded.
func (d *Dashboard) scenario(key string) (domain.Scenario, error) {
	if key == "" {
		key = d.opts.DefaultScenario
	}
	if key == domain.ScenarioNone {
		return domain.Scenario{Key: domain.ScenarioNone, Name: noScenarioName, Layer: domain.None[domain.Layer]()}, nil
	}
	src, ok := d.opts.Catalog.Scenario(key)
	if !ok {
		return domain.Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, key)
	}
	layer, err := d.loader.Layer(src.File, domain.KindPolygon)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("scenario %s: %w", key, err)
	}
	return domain.Scenario{Key: src.Key, Name: src.Name, Layer: domain.Some(layer)}, nil
}

// overlays lists the flood extent first, then the municipal layers in
// drawing order.
func (d *Dashboard) overlays(scenario domain.Scenario, sel Selection) ([]present.Overlay, error) {
	var out []present.Overlay
	if layer, ok := scenario.Layer.Get(); ok {
		o := present.FloodOverlay(scenario.Key, scenario.Name, layer.Len())
		o.URL = layerURL(scenario.Key)
		out = append(out, o)
	}
	for _, key := range present.BaseLayers {
		src, ok := d.layerSource(key)
		if !ok {
			continue
		}
		kind, err := domain.ParseLayerKind(src.Kind)
		if err != nil {
			return nil, err
		}
		layer, err := d.loader.Layer(src.File, kind)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", key, err)
		}
		o, _ := present.BaseOverlay(key, sel.Visible[key], layer.Len())
		o.URL = layerURL(key)
		out = append(out, o)
	}
	return out, nil
}

func (d *Dashboard) layerSource(key string) (config.LayerSource, bool) {
	for _, l := range d.opts.Catalog.Layers {
		if l.Key == key {
			return l, true
		}
	}
	return config.LayerSource{}, false
}

// publish ships snap when a publisher is configured. Failures are logged
// and counted only.
func (d *Dashboard) publish(ctx context.Context, snap domain.MetricsSnapshot) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, snap); err != nil {
		d.logger.Warn("snapshot publish failed", "snapshot_id", snap.ID, "error", err)
		d.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		return
	}
	d.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
}

func layerURL(key string) string {
	return "/api/v1/layers/" + key
}
