package present

// Layer keys shared by the catalog, the query string and the overlays.
const (
	LayerNeighborhoods = "bairros"
	LayerBlocks        = "quadras"
	LayerStreets       = "logradouros"
	LayerLots          = "terrenos"
	LayerBusinesses    = "empresas"
)

// Style is the Leaflet path style of an overlay.
type Style struct {
	Color       string   `json:"color"`
	Weight      float64  `json:"weight"`
	FillColor   string   `json:"fillColor,omitempty"`
	FillOpacity *float64 `json:"fillOpacity,omitempty"`
}

// TooltipField pairs a feature attribute with its display label.
type TooltipField struct {
	Field string `json:"field"`
	Alias string `json:"alias"`
}

// Tooltip is either a per-feature field list or a fixed text.
type Tooltip struct {
	Fields []TooltipField `json:"fields,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// Overlay describes one vector layer on the map. Every overlay is sent with
// its Show flag so the layer control can toggle it client-side.
type Overlay struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Show     bool    `json:"show"`
	Style    Style   `json:"style"`
	Tooltip  Tooltip `json:"tooltip"`
	Features int     `json:"features"`
	URL      string  `json:"url,omitempty"`
}

type layerDescriptor struct {
	name    string
	style   Style
	tooltip []TooltipField
}

func opacity(v float64) *float64 { return &v }

// descriptors are static per layer and independent of the data.
var descriptors = map[string]layerDescriptor{
	LayerNeighborhoods: {
		name:    "Bairros",
		style:   Style{Color: "black", Weight: 2, FillOpacity: opacity(0)},
		tooltip: []TooltipField{{Field: "nm_bairro", Alias: "Bairro:"}},
	},
	LayerBlocks: {
		name:  "Quadras",
		style: Style{Color: "#444444", Weight: 1, FillColor: "grey", FillOpacity: opacity(0.2)},
		tooltip: []TooltipField{
			{Field: "numero", Alias: "Nº da Quadra:"},
			{Field: "area", Alias: "Área (m²):"},
		},
	},
	LayerStreets: {
		name:  "Logradouros",
		style: Style{Color: "dodgerblue", Weight: 2.5},
		tooltip: []TooltipField{
			{Field: "tipo", Alias: "Tipo:"},
			{Field: "nome", Alias: "Nome:"},
		},
	},
	LayerLots: {
		name:    "Terrenos",
		style:   Style{Color: "#966919", Weight: 0.5, FillColor: "#966919", FillOpacity: opacity(0.3)},
		tooltip: []TooltipField{{Field: "area_lote", Alias: "Área do Lote (m²):"}},
	},
}

// BaseLayers lists the municipal layers in drawing order.
var BaseLayers = []string{LayerNeighborhoods, LayerBlocks, LayerStreets, LayerLots}

// IsBaseLayer reports whether key names a municipal layer.
func IsBaseLayer(key string) bool {
	_, ok := descriptors[key]
	return ok
}

// BaseOverlay describes a municipal layer. ok is false for unknown keys.
func BaseOverlay(key string, show bool, features int) (Overlay, bool) {
	d, ok := descriptors[key]
	if !ok {
		return Overlay{}, false
	}
	return Overlay{
		Key:      key,
		Name:     d.name,
		Show:     show,
		Style:    d.style,
		Tooltip:  Tooltip{Fields: append([]TooltipField(nil), d.tooltip...)},
		Features: features,
	}, true
}

// FloodOverlay describes the selected flood extent. It is always shown and
// its tooltip is the scenario name.
func FloodOverlay(scenarioKey, scenarioName string, features int) Overlay {
	return Overlay{
		Key:      scenarioKey,
		Name:     scenarioName,
		Show:     true,
		Style:    Style{Color: "blue", Weight: 1.5, FillColor: "#3186cc", FillOpacity: opacity(0.6)},
		Tooltip:  Tooltip{Text: scenarioName},
		Features: features,
	}
}
