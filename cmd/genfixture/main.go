// Command genfixture writes a synthetic data directory for demos and manual
// testing: municipal layers and two flood extents as GeoJSON, a business
// workbook, and a catalog.yaml that points the service at them.
//
// Usage:
//
//	go run ./cmd/genfixture -out data/fixture -n 500
//	CATALOG_FILE=data/fixture/catalog.yaml DATA_DIR=data/fixture go run ./cmd/dashboard
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-impact-service/internal/adapter/geofile"
	"github.com/couchcryptid/flood-impact-service/internal/adapter/xlsx"
	"github.com/couchcryptid/flood-impact-service/internal/config"
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/present"
	"github.com/twpayne/go-geom"
	"gopkg.in/yaml.v2"
)

// Grid origin, south-west of the Rio Grande map center.
const (
	originLon = present.DefaultLon - 0.02
	originLat = present.DefaultLat - 0.02
	cell      = 0.01
)

var sectors = []struct{ sector, subsector string }{
	{"C", "Preparação do pescado"},
	{"C", "Fabricação de fertilizantes"},
	{"G", "Comércio varejista"},
	{"H", "Transporte rodoviário de carga"},
	{"I", "Restaurantes"},
}

var statuses = []string{"ATIVA", "ATIVA", "ATIVA", "BAIXADA", "INAPTA"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	n := flag.Int("n", 500, "number of businesses")
	seed := flag.Uint64("seed", 2024, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	catalog := config.Catalog{
		Layers: []config.LayerSource{
			{Key: present.LayerNeighborhoods, File: "bairros.geojson", Kind: string(domain.KindPolygon)},
			{Key: present.LayerBlocks, File: "quadras.geojson", Kind: string(domain.KindPolygon)},
			{Key: present.LayerStreets, File: "logradouros.geojson", Kind: string(domain.KindLine)},
			{Key: present.LayerLots, File: "terrenos.geojson", Kind: string(domain.KindPolygon)},
		},
		Scenarios: []config.ScenarioSource{
			{Key: "mai2024", Name: "Maio de 2024", File: "mai2024.geojson"},
			{Key: "set2023", Name: "Setembro de 2023", File: "set2023.geojson"},
		},
		Businesses: "empresas.xlsx",
	}

	layers := map[string]domain.Layer{
		"bairros.geojson":     neighborhoods(),
		"quadras.geojson":     blocks(),
		"logradouros.geojson": streets(),
		"terrenos.geojson":    lots(),
		"mai2024.geojson":     flood(0, 0, 2.5, 2.2),
		"set2023.geojson":     flood(0, 0, 1.2, 1.0),
	}
	for name, l := range layers {
		if err := writeLayer(filepath.Join(*out, name), l); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	if err := xlsx.WriteBusinesses(filepath.Join(*out, catalog.Businesses), "", businesses(rng, *n)); err != nil {
		return err
	}

	data, err := yaml.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(filepath.Join(*out, "catalog.yaml"), data, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %d layers, %d businesses and catalog.yaml to %s\n", len(layers), *n, *out)
	return nil
}

func writeLayer(path string, l domain.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := geofile.EncodeGeoJSON(f, l); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// rect builds a polygon from grid cell offsets.
func rect(x0, y0, x1, y1 float64) *geom.Polygon {
	a, b := originLon+x0*cell, originLat+y0*cell
	c, d := originLon+x1*cell, originLat+y1*cell
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{a, b}, {c, b}, {c, d}, {a, d}, {a, b}},
	})
}

func layerOf(features ...domain.Feature) domain.Layer {
	return domain.Layer{CRS: domain.DefaultCRS, Features: features}
}

func neighborhoods() domain.Layer {
	names := []string{"Centro", "Cidade Nova", "Getúlio Vargas", "Parque Marinha"}
	var fs []domain.Feature
	for i, name := range names {
		x, y := float64(i%2)*2, float64(i/2)*2
		fs = append(fs, domain.Feature{Geometry: rect(x, y, x+2, y+2), Attributes: map[string]any{"nm_bairro": name}})
	}
	return layerOf(fs...)
}

func blocks() domain.Layer {
	var fs []domain.Feature
	for i := range 16 {
		x, y := float64(i%4), float64(i/4)
		fs = append(fs, domain.Feature{
			Geometry:   rect(x+0.1, y+0.1, x+0.9, y+0.9),
			Attributes: map[string]any{"numero": i + 1, "area": 7056.0},
		})
	}
	return layerOf(fs...)
}

func streets() domain.Layer {
	var fs []domain.Feature
	for i := range 5 {
		v := float64(i)
		ew := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{
			{originLon, originLat + v*cell}, {originLon + 4*cell, originLat + v*cell},
		})
		fs = append(fs, domain.Feature{Geometry: ew, Attributes: map[string]any{"tipo": "Rua", "nome": fmt.Sprintf("Rua %d", i+1)}})
		ns := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{
			{originLon + v*cell, originLat}, {originLon + v*cell, originLat + 4*cell},
		})
		fs = append(fs, domain.Feature{Geometry: ns, Attributes: map[string]any{"tipo": "Avenida", "nome": fmt.Sprintf("Avenida %d", i+1)}})
	}
	return layerOf(fs...)
}

func lots() domain.Layer {
	var fs []domain.Feature
	for i := range 64 {
		x, y := float64(i%8)*0.5, float64(i/8)*0.5
		fs = append(fs, domain.Feature{
			Geometry:   rect(x+0.05, y+0.05, x+0.45, y+0.45),
			Attributes: map[string]any{"area_lote": 1600.0},
		})
	}
	return layerOf(fs...)
}

// flood is an L-shaped extent with a dry island in the middle.
func flood(x0, y0, x1, y1 float64) domain.Layer {
	a, b := originLon+x0*cell, originLat+y0*cell
	c, d := originLon+x1*cell, originLat+y1*cell
	mx, my := (a+c)/2, (b+d)/2
	h := cell * 0.15
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{a, b}, {c, b}, {c, my}, {mx, my}, {mx, d}, {a, d}, {a, b}},
		{{a + h, b + h}, {a + h, b + 2*h}, {a + 2*h, b + 2*h}, {a + 2*h, b + h}, {a + h, b + h}},
	})
	return layerOf(domain.Feature{Geometry: p, Attributes: map[string]any{"cenario": "sintético"}})
}

func businesses(rng *rand.Rand, n int) domain.BusinessTable {
	t := domain.BusinessTable{CRS: domain.DefaultCRS}
	for i := range n {
		s := sectors[rng.IntN(len(sectors))]
		employees := float64(1 + rng.IntN(40))
		salary := 1412 + rng.Float64()*6000
		b := domain.Business{
			ID:            fmt.Sprintf("%014d", 10000000000000+i),
			Sector:        s.sector,
			Subsector:     s.subsector,
			Status:        statuses[rng.IntN(len(statuses))],
			Employees:     employees,
			Payroll:       employees * salary,
			AverageSalary: salary,
			SalaryKnown:   rng.IntN(20) != 0,
			Lon:           originLon + rng.Float64()*4*cell,
			Lat:           originLat + rng.Float64()*4*cell,
		}
		t.Rows = append(t.Rows, b)
	}
	return t
}
