package present

import (
	"fmt"
	"html"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
)

// Marker is one business pin. Popup is an HTML fragment.
type Marker struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// MarkerLayer is the clustered business layer.
type MarkerLayer struct {
	Name    string   `json:"name"`
	Show    bool     `json:"show"`
	Cluster bool     `json:"cluster"`
	Markers []Marker `json:"markers"`
}

// Markers builds one marker per row of t, in table order.
func Markers(t domain.BusinessTable) MarkerLayer {
	layer := MarkerLayer{Name: "Empresas", Show: true, Cluster: true, Markers: make([]Marker, 0, t.Len())}
	for _, b := range t.Rows {
		layer.Markers = append(layer.Markers, Marker{ID: b.ID, Lat: b.Lat, Lon: b.Lon, Popup: Popup(b)})
	}
	return layer
}

// Popup renders the marker text for b.
func Popup(b domain.Business) string {
	id := b.ID
	if id == "" {
		id = "N/A"
	}
	avg := "N/A"
	if b.SalaryKnown {
		avg = BRL(b.AverageSalary)
	}
	return fmt.Sprintf("<b>ID:</b> %s<br><b>Empregados:</b> %s<br><b>Massa Salarial:</b> %s<br><b>Média Salarial:</b> %s",
		html.EscapeString(id), Integer.Format(b.Employees), BRL(b.Payroll), avg)
}
