package present

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseOverlay(t *testing.T) {
	tests := []struct {
		key     string
		name    string
		style   string
		tooltip []TooltipField
	}{
		{
			LayerNeighborhoods, "Bairros",
			`{"color":"black","weight":2,"fillOpacity":0}`,
			[]TooltipField{{"nm_bairro", "Bairro:"}},
		},
		{
			LayerBlocks, "Quadras",
			`{"color":"#444444","weight":1,"fillColor":"grey","fillOpacity":0.2}`,
			[]TooltipField{{"numero", "Nº da Quadra:"}, {"area", "Área (m²):"}},
		},
		{
			LayerStreets, "Logradouros",
			`{"color":"dodgerblue","weight":2.5}`,
			[]TooltipField{{"tipo", "Tipo:"}, {"nome", "Nome:"}},
		},
		{
			LayerLots, "Terrenos",
			`{"color":"#966919","weight":0.5,"fillColor":"#966919","fillOpacity":0.3}`,
			[]TooltipField{{"area_lote", "Área do Lote (m²):"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			o, ok := BaseOverlay(tt.key, true, 42)
			require.True(t, ok)
			assert.Equal(t, tt.name, o.Name)
			assert.True(t, o.Show)
			assert.Equal(t, 42, o.Features)
			assert.Equal(t, tt.tooltip, o.Tooltip.Fields)

			style, err := json.Marshal(o.Style)
			require.NoError(t, err)
			assert.JSONEq(t, tt.style, string(style))
		})
	}

	_, ok := BaseOverlay("rios", true, 0)
	assert.False(t, ok)
	assert.False(t, IsBaseLayer(LayerBusinesses))
}

func TestBaseOverlayTooltipIsCopied(t *testing.T) {
	o, _ := BaseOverlay(LayerBlocks, false, 0)
	o.Tooltip.Fields[0].Alias = "changed"

	again, _ := BaseOverlay(LayerBlocks, false, 0)
	assert.Equal(t, "Nº da Quadra:", again.Tooltip.Fields[0].Alias)
}

func TestFloodOverlay(t *testing.T) {
	o := FloodOverlay("mai2024", "Maio de 2024", 3)

	assert.Equal(t, "Maio de 2024", o.Name)
	assert.True(t, o.Show)
	assert.Equal(t, "Maio de 2024", o.Tooltip.Text)
	assert.Empty(t, o.Tooltip.Fields)

	style, err := json.Marshal(o.Style)
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"blue","weight":1.5,"fillColor":"#3186cc","fillOpacity":0.6}`, string(style))
}

func TestPopup(t *testing.T) {
	b := domain.Business{ID: "101", Employees: 1200, Payroll: 36000.5, AverageSalary: 3000.04, SalaryKnown: true}
	assert.Equal(t,
		"<b>ID:</b> 101<br><b>Empregados:</b> 1.200<br><b>Massa Salarial:</b> R$ 36.000,50<br><b>Média Salarial:</b> R$ 3.000,04",
		Popup(b))

	t.Run("missing id and salary", func(t *testing.T) {
		p := Popup(domain.Business{Employees: 2, Payroll: 0})
		assert.Contains(t, p, "<b>ID:</b> N/A<br>")
		assert.Contains(t, p, "<b>Média Salarial:</b> N/A")
	})

	t.Run("id escaped", func(t *testing.T) {
		assert.Contains(t, Popup(domain.Business{ID: "<x>"}), "&lt;x&gt;")
	})
}

func TestMarkers(t *testing.T) {
	tbl := domain.BusinessTable{Rows: []domain.Business{
		{ID: "1", Lat: -32.03, Lon: -52.09},
		{ID: "2", Lat: -32.04, Lon: -52.10},
	}}

	layer := Markers(tbl)
	assert.Equal(t, "Empresas", layer.Name)
	assert.True(t, layer.Cluster)
	require.Len(t, layer.Markers, 2)
	assert.Equal(t, "2", layer.Markers[1].ID)
	assert.Equal(t, -32.04, layer.Markers[1].Lat)
	assert.NotEmpty(t, layer.Markers[1].Popup)

	assert.NotNil(t, Markers(domain.BusinessTable{}).Markers)
}

func TestCardsOverview(t *testing.T) {
	snap := domain.MetricsSnapshot{
		Mode: domain.ModeOverview,
		Full: domain.Totals{Count: 1500, Employees: 12345, Payroll: 1234567.8, MeanSalary: 2500},
	}

	panel := Cards(snap, "Maio de 2024")
	assert.Equal(t, domain.ModeOverview, panel.Mode)
	assert.Equal(t, "Visão Geral", panel.Title)
	assert.Equal(t, []Card{
		{Label: "Total de Empresas", Value: "1.500"},
		{Label: "Total de Empregados", Value: "12.345"},
		{Label: "Massa Salarial Total", Value: "R$ 1.234.567,80"},
		{Label: "Média Salarial Geral", Value: "R$ 2.500,00"},
	}, panel.Cards)
}

func TestCardsComparative(t *testing.T) {
	full := domain.Totals{Count: 100, Employees: 1000, Payroll: 200000, MeanSalary: 2000}
	sub := domain.Totals{Count: 10, Employees: 150, Payroll: 30000, MeanSalary: 2100}
	pct := domain.Compare(full, sub)
	snap := domain.MetricsSnapshot{
		Mode: domain.ModeComparative, Scenario: "mai2024",
		Full: full, Subset: &sub, Percent: &pct, GeneratedAt: time.Now(),
	}

	panel := Cards(snap, "Maio de 2024")
	assert.Equal(t, "Impacto Comparativo para o Cenário: Maio de 2024", panel.Title)
	assert.Equal(t, []Card{
		{Label: "Empresas Atingidas", Value: "10", Delta: "de 100 no Total (10,0%)"},
		{Label: "Empregados Atingidos", Value: "150", Delta: "de 1.000 no Total (15,0%)"},
		{Label: "Massa Salarial Atingida", Value: "R$ 30.000,00", Delta: "de 200.000,00 no Total (15,0%)"},
		{Label: "Média Salarial (Atingidos)", Value: "R$ 2.100,00", Delta: "de 2.000,00 no Total"},
	}, panel.Cards)
}

func TestCardsNone(t *testing.T) {
	panel := Cards(domain.MetricsSnapshot{Mode: domain.ModeNone}, "")
	assert.Equal(t, domain.ModeNone, panel.Mode)
	assert.Empty(t, panel.Cards)
}

func TestNewMapView(t *testing.T) {
	v := NewMapView("")
	assert.Equal(t, [2]float64{-32.0353, -52.0986}, v.Center)
	assert.Equal(t, 13, v.Zoom)
	assert.Equal(t, "CartoDB positron", v.Tiles)

	assert.Equal(t, "OpenStreetMap", NewMapView("OpenStreetMap").Tiles)
}
