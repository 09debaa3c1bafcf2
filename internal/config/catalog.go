package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"gopkg.in/yaml.v2"
)

// ScenarioNone is the selector key for "no flood scenario".
const ScenarioNone = domain.ScenarioNone

// Catalog names the source files of the dashboard. Relative paths are
// resolved against DATA_DIR.
type Catalog struct {
	Layers     []LayerSource    `yaml:"layers"`
	Scenarios  []ScenarioSource `yaml:"scenarios"`
	Businesses string           `yaml:"businesses"`
}

// LayerSource is one municipal layer.
type LayerSource struct {
	Key  string `yaml:"key"`
	File string `yaml:"file"`
	Kind string `yaml:"kind"`
}

// ScenarioSource is one flood extent offered in the scenario selector.
type ScenarioSource struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// DefaultCatalog lists the Rio Grande municipal datasets.
func DefaultCatalog() Catalog {
	return Catalog{
		Layers: []LayerSource{
			{Key: "bairros", File: "PMRG_231215_layer_Bairros.shp", Kind: "polygon"},
			{Key: "quadras", File: "PMRG_231215_layer_Quadras.shp", Kind: "polygon"},
			{Key: "logradouros", File: "PMRG_231215_layer_Logradouros_segmentos.shp", Kind: "line"},
			{Key: "terrenos", File: "PMRG_231215_layer_Terrenos.shp", Kind: "polygon"},
		},
		Scenarios: []ScenarioSource{
			{Key: "mai2024", Name: "Maio de 2024", File: "CEN_MAI2024.shp"},
			{Key: "set2023", Name: "Setembro de 2023", File: "CEN_SET2023.shp"},
		},
		Businesses: "RAIS e Receita (Georrefenciada).xlsx",
	}
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Validate checks keys are present and unique and kinds are known.
func (c Catalog) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New("catalog: no layers")
	}
	seen := make(map[string]bool)
	for _, l := range c.Layers {
		if l.Key == "" || l.File == "" {
			return fmt.Errorf("catalog: layer %q needs key and file", l.Key)
		}
		if seen[l.Key] {
			return fmt.Errorf("catalog: duplicate key %q", l.Key)
		}
		seen[l.Key] = true
		if _, err := domain.ParseLayerKind(l.Kind); err != nil {
			return fmt.Errorf("catalog: layer %q: %w", l.Key, err)
		}
	}
	for _, s := range c.Scenarios {
		if s.Key == "" || s.Name == "" || s.File == "" {
			return fmt.Errorf("catalog: scenario %q needs key, name and file", s.Key)
		}
		if s.Key == ScenarioNone {
			return fmt.Errorf("catalog: scenario key %q is reserved", ScenarioNone)
		}
		if seen[s.Key] {
			return fmt.Errorf("catalog: duplicate key %q", s.Key)
		}
		seen[s.Key] = true
	}
	return nil
}

// Scenario looks up a scenario by key.
func (c Catalog) Scenario(key string) (ScenarioSource, bool) {
	for _, s := range c.Scenarios {
		if s.Key == key {
			return s, true
		}
	}
	return ScenarioSource{}, false
}

// Resolve returns a copy of c with relative file paths joined to dir.
func (c Catalog) Resolve(dir string) Catalog {
	out := Catalog{
		Layers:    make([]LayerSource, len(c.Layers)),
		Scenarios: make([]ScenarioSource, len(c.Scenarios)),
	}
	for i, l := range c.Layers {
		l.File = resolve(dir, l.File)
		out.Layers[i] = l
	}
	for i, s := range c.Scenarios {
		s.File = resolve(dir, s.File)
		out.Scenarios[i] = s
	}
	if c.Businesses != "" {
		out.Businesses = resolve(dir, c.Businesses)
	}
	return out
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}
