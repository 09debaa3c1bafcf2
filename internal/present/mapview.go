package present

// Map defaults centered on Rio Grande, RS.
const (
	DefaultLat   = -32.0353
	DefaultLon   = -52.0986
	DefaultZoom  = 13
	DefaultTiles = "CartoDB positron"
)

// MapView positions the base map.
type MapView struct {
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
	Tiles  string     `json:"tiles"`
}

// NewMapView returns the default view with the given tile set; an empty
// tiles value keeps DefaultTiles.
func NewMapView(tiles string) MapView {
	if tiles == "" {
		tiles = DefaultTiles
	}
	return MapView{Center: [2]float64{DefaultLat, DefaultLon}, Zoom: DefaultZoom, Tiles: tiles}
}
