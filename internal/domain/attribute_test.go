package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func registry() BusinessTable {
	return BusinessTable{Source: "empresas.xlsx", CRS: DefaultCRS, Rows: []Business{
		{ID: "1", Sector: "COMÉRCIO", Subsector: "Varejo", Status: "ATIVA"},
		{ID: "2", Sector: "INDÚSTRIA", Subsector: "Pescado", Status: "ATIVA"},
		{ID: "3", Sector: "COMÉRCIO", Subsector: "Atacado", Status: "BAIXADA"},
		{ID: "4", Sector: "SERVIÇOS", Subsector: "", Status: "SUSPENSA"},
		{ID: "5", Sector: "", Subsector: "Varejo", Status: "ATIVA"},
	}}
}

func TestFilterAttributes(t *testing.T) {
	tests := []struct {
		name string
		c    Constraints
		want []string
	}{
		{"no constraints", Constraints{}, []string{"1", "2", "3", "4", "5"}},
		{"sector only", Constraints{Sectors: []string{"COMÉRCIO"}}, []string{"1", "3"}},
		{"subsector only", Constraints{Subsectors: []string{"Varejo"}}, []string{"1", "5"}},
		{"status only", Constraints{Statuses: []string{"ATIVA"}}, []string{"1", "2", "5"}},
		{"sector and status", Constraints{Sectors: []string{"COMÉRCIO"}, Statuses: []string{"ATIVA"}}, []string{"1"}},
		{"several values per field", Constraints{Sectors: []string{"INDÚSTRIA", "SERVIÇOS"}}, []string{"2", "4"}},
		{"unmatched value", Constraints{Statuses: []string{"NULA"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FilterAttributes(registry(), tt.c)
			assert.Equal(t, tt.want, ids(out))
			assert.Equal(t, "empresas.xlsx", out.Source)
		})
	}
}

func TestFilterAttributesComposes(t *testing.T) {
	tbl := registry()
	sector := Constraints{Sectors: []string{"COMÉRCIO", "INDÚSTRIA"}}
	status := Constraints{Statuses: []string{"ATIVA"}}
	both := Constraints{Sectors: sector.Sectors, Statuses: status.Statuses}

	combined := FilterAttributes(tbl, both)
	assert.Equal(t, combined, FilterAttributes(FilterAttributes(tbl, sector), status))
	assert.Equal(t, combined, FilterAttributes(FilterAttributes(tbl, status), sector))
	assert.Equal(t, combined, FilterAttributes(combined, both))
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(registry())

	assert.Equal(t, []string{"COMÉRCIO", "INDÚSTRIA", "SERVIÇOS"}, opts.Sectors)
	assert.Equal(t, []string{"Atacado", "Pescado", "Varejo"}, opts.Subsectors)
	assert.Equal(t, []string{"ATIVA", "BAIXADA", "SUSPENSA"}, opts.Statuses)

	t.Run("options shrink with the table", func(t *testing.T) {
		narrowed := FilterAttributes(registry(), Constraints{Sectors: []string{"INDÚSTRIA"}})
		opts := FilterOptions(narrowed)
		assert.Equal(t, []string{"INDÚSTRIA"}, opts.Sectors)
		assert.Equal(t, []string{"ATIVA"}, opts.Statuses)
	})

	t.Run("empty table", func(t *testing.T) {
		opts := FilterOptions(BusinessTable{})
		assert.Empty(t, opts.Sectors)
		assert.Empty(t, opts.Subsectors)
		assert.Empty(t, opts.Statuses)
	})
}

func TestDefaultStatuses(t *testing.T) {
	assert.Equal(t, []string{StatusActive}, DefaultStatuses(Options{Statuses: []string{"ATIVA", "BAIXADA"}}))
	assert.Nil(t, DefaultStatuses(Options{Statuses: []string{"BAIXADA"}}))
	assert.Nil(t, DefaultStatuses(Options{}))
}
