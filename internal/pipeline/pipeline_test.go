package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/flood-impact-service/internal/config"
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/observability"
	"github.com/couchcryptid/flood-impact-service/internal/pipeline"
	"github.com/couchcryptid/flood-impact-service/internal/present"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// --- fakes ---

type fakeLoader struct {
	layers      map[string]domain.Layer
	businesses  domain.BusinessTable
	businessErr error
}

func (f *fakeLoader) Layer(path string, kind domain.LayerKind) (domain.Layer, error) {
	l, ok := f.layers[path]
	if !ok {
		return domain.Layer{}, domain.NewLoadError(path, domain.ErrMissingFile, nil)
	}
	l.Kind = kind
	return l, nil
}

func (f *fakeLoader) Businesses(path string) (domain.BusinessTable, error) {
	if f.businessErr != nil {
		return domain.BusinessTable{}, domain.NewLoadError(path, domain.ErrMissingColumns, f.businessErr)
	}
	return f.businesses, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []domain.MetricsSnapshot
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, snap domain.MetricsSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.snaps = append(p.snaps, snap)
	return nil
}

// --- fixtures ---

func square(x0, y0, x1, y1 float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}},
	})
}

func polygonLayer(polys ...*geom.Polygon) domain.Layer {
	l := domain.Layer{CRS: domain.DefaultCRS}
	for _, p := range polys {
		l.Features = append(l.Features, domain.Feature{Geometry: p, Attributes: map[string]any{}})
	}
	return l
}

func testCatalog() config.Catalog {
	return config.Catalog{
		Layers: []config.LayerSource{
			{Key: "bairros", File: "bairros.geojson", Kind: "polygon"},
			{Key: "quadras", File: "quadras.geojson", Kind: "polygon"},
			{Key: "logradouros", File: "logradouros.geojson", Kind: "line"},
			{Key: "terrenos", File: "terrenos.geojson", Kind: "polygon"},
		},
		Scenarios: []config.ScenarioSource{
			{Key: "mai2024", Name: "Maio de 2024", File: "mai2024.geojson"},
			{Key: "set2023", Name: "Setembro de 2023", File: "set2023.geojson"},
		},
		Businesses: "empresas.xlsx",
	}
}

// registry holds 100 businesses; the first 10 lie inside the May 2024
// flood square. Even rows are active.
func registry() domain.BusinessTable {
	t := domain.BusinessTable{Source: "empresas.xlsx", CRS: domain.DefaultCRS}
	for i := range 100 {
		b := domain.Business{
			ID:            fmt.Sprintf("E%03d", i),
			Sector:        "C",
			Status:        "BAIXADA",
			Employees:     2,
			Payroll:       1000,
			AverageSalary: 500,
			SalaryKnown:   true,
			Lon:           20 + float64(i),
			Lat:           20,
		}
		if i < 10 {
			b.Lon, b.Lat = 5+0.1*float64(i), 5
		}
		if i%2 == 0 {
			b.Status = domain.StatusActive
		}
		t.Rows = append(t.Rows, b)
	}
	return t
}

func newLoader() *fakeLoader {
	block := square(0, 0, 1, 1)
	return &fakeLoader{
		layers: map[string]domain.Layer{
			"bairros.geojson":     polygonLayer(square(0, 0, 50, 50), square(50, 0, 150, 50)),
			"quadras.geojson":     polygonLayer(block, block, block),
			"logradouros.geojson": {CRS: domain.DefaultCRS, Features: []domain.Feature{{Geometry: geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {1, 1}})}}},
			"terrenos.geojson":    polygonLayer(block),
			"mai2024.geojson":     polygonLayer(square(0, 0, 10, 10)),
			"set2023.geojson":     polygonLayer(square(-10, -10, -5, -5)),
		},
		businesses: registry(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDashboard(t *testing.T, loader pipeline.Loader, pub pipeline.SnapshotPublisher) (*pipeline.Dashboard, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	d := pipeline.New(pipeline.Options{
		Catalog:         testCatalog(),
		DefaultScenario: "mai2024",
	}, loader, pub, discardLogger(), metrics)
	require.NoError(t, d.Init(context.Background()))
	return d, metrics
}

// --- tests ---

func TestDashboard_Init_MissingGeometryIsFatal(t *testing.T) {
	loader := newLoader()
	delete(loader.layers, "quadras.geojson")
	metrics := observability.NewMetricsForTesting()
	d := pipeline.New(pipeline.Options{Catalog: testCatalog()}, loader, nil, discardLogger(), metrics)

	err := d.Init(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrMissingFile)
	assert.Contains(t, err.Error(), "quadras")
	require.ErrorIs(t, d.CheckReadiness(context.Background()), pipeline.ErrNotInitialized)
	assert.Zero(t, testutil.ToFloat64(metrics.DataReady))
}

func TestDashboard_Render_BeforeInit(t *testing.T) {
	d := pipeline.New(pipeline.Options{Catalog: testCatalog()}, newLoader(), nil, discardLogger(), observability.NewMetricsForTesting())
	_, err := d.Render(context.Background(), d.DefaultSelection())
	require.ErrorIs(t, err, pipeline.ErrNotInitialized)
}

func TestDashboard_Init_BusinessFailureIsNotice(t *testing.T) {
	loader := newLoader()
	loader.businessErr = errors.New("latitude")
	d, metrics := newDashboard(t, loader, nil)

	require.NoError(t, d.CheckReadiness(context.Background()))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DataReady), 1e-9)

	sel := d.DefaultSelection()
	sel.AffectedOnly = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	require.Len(t, view.Notices, 1)
	assert.Contains(t, view.Notices[0], "empresas")
	assert.Nil(t, view.Businesses)
	assert.Nil(t, view.Filters)
	assert.Nil(t, view.Snapshot)
	assert.Equal(t, domain.ModeNone, view.Metrics.Mode)
	assert.Empty(t, view.Metrics.Cards)
	assert.Len(t, view.Overlays, 5, "geometry layers still render")
}

func TestDashboard_Render_DefaultSelection(t *testing.T) {
	pub := &recordingPublisher{}
	d, metrics := newDashboard(t, newLoader(), pub)

	view, err := d.Render(context.Background(), d.DefaultSelection())
	require.NoError(t, err)

	assert.Equal(t, present.NewMapView(""), view.Map)
	assert.Equal(t, pipeline.ScenarioInfo{Key: "mai2024", Name: "Maio de 2024", Default: true}, view.Scenario)

	require.Len(t, view.Overlays, 5)
	wantOrder := []struct {
		key      string
		show     bool
		features int
	}{
		{"mai2024", true, 1},
		{"bairros", true, 2},
		{"quadras", true, 3},
		{"logradouros", false, 1},
		{"terrenos", false, 1},
	}
	for i, w := range wantOrder {
		assert.Equal(t, w.key, view.Overlays[i].Key)
		assert.Equal(t, w.show, view.Overlays[i].Show, w.key)
		assert.Equal(t, w.features, view.Overlays[i].Features, w.key)
		assert.Equal(t, "/api/v1/layers/"+w.key, view.Overlays[i].URL)
	}
	assert.Equal(t, "Maio de 2024", view.Overlays[0].Tooltip.Text)

	assert.Equal(t, domain.ModeOverview, view.Metrics.Mode)
	require.Len(t, view.Metrics.Cards, 4)
	assert.Equal(t, "100", view.Metrics.Cards[0].Value)
	assert.Equal(t, "200", view.Metrics.Cards[1].Value)
	assert.Equal(t, "R$ 100.000,00", view.Metrics.Cards[2].Value)
	assert.Equal(t, "R$ 500,00", view.Metrics.Cards[3].Value)

	require.NotNil(t, view.Filters)
	assert.Equal(t, []string{domain.StatusActive}, view.Filters.Selected.Statuses)
	assert.Equal(t, []string{domain.StatusActive, "BAIXADA"}, view.Filters.Options.Statuses)

	require.NotNil(t, view.Businesses)
	assert.Len(t, view.Businesses.Markers, 50, "active businesses only")
	assert.True(t, view.Businesses.Cluster)

	assert.Empty(t, pub.snaps, "overview snapshots are not published")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Renders.WithLabelValues("overview")), 1e-9)
}

func TestDashboard_Render_AffectedOnly(t *testing.T) {
	pub := &recordingPublisher{}
	d, metrics := newDashboard(t, newLoader(), pub)

	sel := d.DefaultSelection()
	sel.AffectedOnly = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	require.NotNil(t, view.Snapshot)
	assert.Equal(t, domain.ModeComparative, view.Snapshot.Mode)
	assert.Equal(t, "mai2024", view.Snapshot.Scenario)
	assert.Equal(t, 100, view.Snapshot.Full.Count)
	require.NotNil(t, view.Snapshot.Subset)
	assert.Equal(t, 10, view.Snapshot.Subset.Count)
	require.NotNil(t, view.Snapshot.Percent)
	assert.InDelta(t, 10.0, view.Snapshot.Percent.Count, 1e-9)

	assert.Equal(t, "Impacto Comparativo para o Cenário: Maio de 2024", view.Metrics.Title)
	require.Len(t, view.Metrics.Cards, 4)
	assert.Equal(t, present.Card{Label: "Empresas Atingidas", Value: "10", Delta: "de 100 no Total (10,0%)"}, view.Metrics.Cards[0])
	assert.Equal(t, "de 200 no Total (10,0%)", view.Metrics.Cards[1].Delta)
	assert.Equal(t, "R$ 10.000,00", view.Metrics.Cards[2].Value)
	assert.Equal(t, "de 100.000,00 no Total (10,0%)", view.Metrics.Cards[2].Delta)
	assert.Equal(t, "de 500,00 no Total", view.Metrics.Cards[3].Delta)

	// Options come from the affected subset; markers are further narrowed
	// to active businesses.
	require.NotNil(t, view.Filters)
	assert.Equal(t, []string{domain.StatusActive, "BAIXADA"}, view.Filters.Options.Statuses)
	require.NotNil(t, view.Businesses)
	assert.Len(t, view.Businesses.Markers, 5)
	for _, m := range view.Businesses.Markers {
		assert.InDelta(t, 5.0, m.Lat, 1e-9)
	}

	require.Len(t, pub.snaps, 1)
	assert.Equal(t, view.Snapshot.ID, pub.snaps[0].ID)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.SnapshotsPublished.WithLabelValues("success")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Renders.WithLabelValues("comparative")), 1e-9)
}

func TestDashboard_Render_AttributeFiltersDoNotChangeComparison(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.AffectedOnly = true
	sel.Constraints = domain.Constraints{Sectors: []string{"Z"}}
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	assert.Nil(t, view.Businesses, "no business matches sector Z")
	require.NotNil(t, view.Snapshot.Subset)
	assert.Equal(t, 10, view.Snapshot.Subset.Count)
	assert.Equal(t, []string{"Z"}, view.Filters.Selected.Sectors)
}

func TestDashboard_Render_NoScenarioStaysOverview(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.Scenario = domain.ScenarioNone
	sel.AffectedOnly = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeOverview, view.Metrics.Mode)
	assert.Equal(t, "Nenhum", view.Scenario.Name)
	require.Len(t, view.Overlays, 4, "no flood overlay")
	assert.Equal(t, "bairros", view.Overlays[0].Key)
}

func TestDashboard_Render_ScenarioWithoutAffectedBusinesses(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.Scenario = "set2023"
	sel.AffectedOnly = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeComparative, view.Metrics.Mode)
	assert.Equal(t, "0", view.Metrics.Cards[0].Value)
	assert.Equal(t, "de 100 no Total (0,0%)", view.Metrics.Cards[0].Delta)
	assert.Equal(t, "R$ 0,00", view.Metrics.Cards[3].Value)
	assert.Nil(t, view.Businesses)
	assert.Empty(t, view.Filters.Options.Statuses)
}

func TestDashboard_Render_BusinessesHidden(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.Visible[present.LayerBusinesses] = false
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNone, view.Metrics.Mode)
	assert.Nil(t, view.Businesses)
	assert.Nil(t, view.Filters)

	sel.AffectedOnly = true
	view, err = d.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeComparative, view.Metrics.Mode, "comparison does not depend on marker visibility")
	assert.Nil(t, view.Businesses)
}

func TestDashboard_Render_ExplicitEmptyStatus(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.StatusExplicit = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)

	require.NotNil(t, view.Businesses)
	assert.Len(t, view.Businesses.Markers, 100)
	assert.Empty(t, view.Filters.Selected.Statuses)
}

func TestDashboard_Render_UnknownScenario(t *testing.T) {
	d, metrics := newDashboard(t, newLoader(), nil)

	sel := d.DefaultSelection()
	sel.Scenario = "jan1941"
	_, err := d.Render(context.Background(), sel)
	require.ErrorIs(t, err, pipeline.ErrUnknownScenario)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RenderErrors), 1e-9)
}

func TestDashboard_Render_PublishFailureIsAbsorbed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d, metrics := newDashboard(t, newLoader(), pub)

	sel := d.DefaultSelection()
	sel.AffectedOnly = true
	view, err := d.Render(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeComparative, view.Metrics.Mode)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.SnapshotsPublished.WithLabelValues("error")), 1e-9)
}

func TestDashboard_Scenarios(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	assert.Equal(t, []pipeline.ScenarioInfo{
		{Key: "none", Name: "Nenhum"},
		{Key: "mai2024", Name: "Maio de 2024", Default: true},
		{Key: "set2023", Name: "Setembro de 2023"},
	}, d.Scenarios())
	assert.True(t, d.HasScenario("none"))
	assert.True(t, d.HasScenario("set2023"))
	assert.False(t, d.HasScenario("bairros"))
}

func TestDashboard_LayerGeoJSON(t *testing.T) {
	d, _ := newDashboard(t, newLoader(), nil)

	l, err := d.LayerGeoJSON("quadras")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, domain.DefaultCRS, l.CRS)

	l, err = d.LayerGeoJSON("mai2024")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPolygon, l.Kind)

	_, err = d.LayerGeoJSON("empresas")
	require.ErrorIs(t, err, pipeline.ErrUnknownLayer)
}
