package pipeline

import (
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/present"
)

// Selection is the user input of one render.
type Selection struct {
	// Visible maps layer keys, including "empresas", to their checkbox state.
	Visible      map[string]bool
	Scenario     string
	AffectedOnly bool
	Constraints  domain.Constraints

	// StatusExplicit is set when the user chose statuses, even an empty
	// choice. Otherwise the default status selection applies.
	StatusExplicit bool
}

// DefaultSelection is the state of a first visit.
func (d *Dashboard) DefaultSelection() Selection {
	return Selection{
		Visible:  DefaultVisibility(),
		Scenario: d.opts.DefaultScenario,
	}
}

// DefaultVisibility returns the initial checkbox state of each layer.
func DefaultVisibility() map[string]bool {
	return map[string]bool{
		present.LayerNeighborhoods: true,
		present.LayerBlocks:        true,
		present.LayerStreets:       false,
		present.LayerLots:          false,
		present.LayerBusinesses:    true,
	}
}

// ScenarioInfo names one selector entry.
type ScenarioInfo struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}

// FilterState carries the filter choices offered and applied.
type FilterState struct {
	Options  domain.Options     `json:"options"`
	Selected domain.Constraints `json:"selected"`
}

// View is everything the client needs to draw one dashboard state.
type View struct {
	Map        present.MapView         `json:"map"`
	Scenario   ScenarioInfo            `json:"scenario"`
	Overlays   []present.Overlay       `json:"overlays"`
	Businesses *present.MarkerLayer    `json:"businesses,omitempty"`
	Filters    *FilterState            `json:"filters,omitempty"`
	Metrics    present.Panel           `json:"metrics"`
	Snapshot   *domain.MetricsSnapshot `json:"snapshot,omitempty"`
	Notices    []string                `json:"notices,omitempty"`
}

// normalize replaces nil lists with empty ones for stable JSON.
func normalize(c domain.Constraints) domain.Constraints {
	if c.Sectors == nil {
		c.Sectors = []string{}
	}
	if c.Subsectors == nil {
		c.Subsectors = []string{}
	}
	if c.Statuses == nil {
		c.Statuses = []string{}
	}
	return c
}
