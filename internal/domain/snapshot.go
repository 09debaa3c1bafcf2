package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects which metric cards a render shows.
type Mode string

const (
	// ModeNone means the business layer is hidden or unavailable.
	ModeNone        Mode = "none"
	ModeOverview    Mode = "overview"
	ModeComparative Mode = "comparative"
)

// MetricsSnapshot holds the figures of one render. It is built from exactly
// two tables, the full population and the affected subset, and is discarded
// once the response is written.
type MetricsSnapshot struct {
	ID          uuid.UUID    `json:"id"`
	Mode        Mode         `json:"mode"`
	Scenario    string       `json:"scenario"`
	Full        Totals       `json:"full"`
	Subset      *Totals      `json:"subset,omitempty"`
	Percent     *Percentages `json:"percent,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// NewOverviewSnapshot summarizes the full population only.
func NewOverviewSnapshot(scenario string, full BusinessTable) MetricsSnapshot {
	return MetricsSnapshot{
		ID:          uuid.New(),
		Mode:        ModeOverview,
		Scenario:    scenario,
		Full:        Aggregate(full),
		GeneratedAt: clock.Now().UTC(),
	}
}

// NewComparativeSnapshot compares the affected subset against the full
// population.
func NewComparativeSnapshot(scenario string, full, subset BusinessTable) MetricsSnapshot {
	f := Aggregate(full)
	s := Aggregate(subset)
	p := Compare(f, s)
	return MetricsSnapshot{
		ID:          uuid.New(),
		Mode:        ModeComparative,
		Scenario:    scenario,
		Full:        f,
		Subset:      &s,
		Percent:     &p,
		GeneratedAt: clock.Now().UTC(),
	}
}
