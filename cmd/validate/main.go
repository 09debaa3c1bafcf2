// Command validate loads a data directory through the same readers the
// service uses and reports, per source, feature counts, reference system and
// dropped business rows. It exits non-zero when any source would keep the
// dashboard from starting.
//
// Usage:
//
//	go run ./cmd/validate -data-dir Dados
//	go run ./cmd/validate -data-dir data/fixture -catalog data/fixture/catalog.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/flood-impact-service/internal/adapter/geofile"
	"github.com/couchcryptid/flood-impact-service/internal/adapter/xlsx"
	"github.com/couchcryptid/flood-impact-service/internal/config"
	"github.com/couchcryptid/flood-impact-service/internal/domain"
	"github.com/couchcryptid/flood-impact-service/internal/loader"
	"github.com/couchcryptid/flood-impact-service/internal/observability"
	"github.com/couchcryptid/flood-impact-service/internal/present"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	lines  []string
	errors []string
}

func (p *phase) infof(format string, args ...any) {
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "Dados", "directory holding the source files")
	catalogPath := flag.String("catalog", "", "optional catalog YAML (defaults to the built-in catalog)")
	sheet := flag.String("sheet", "", "business workbook sheet (defaults to the first sheet)")
	flag.Parse()

	os.Exit(run(*dataDir, *catalogPath, *sheet))
}

func run(dataDir, catalogPath, sheet string) int {
	catalog := config.DefaultCatalog()
	if catalogPath != "" {
		c, err := config.LoadCatalog(catalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		catalog = c
	}
	if err := catalog.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	catalog = catalog.Resolve(dataDir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := loader.NewCache(geofile.NewReader(logger), xlsx.NewReader(sheet, logger), observability.NewMetricsForTesting(), logger)

	fmt.Println("=== Flood Impact Data Validation ===")
	fmt.Println()

	layers := validateLayers(cache, catalog)
	scenarios, floods := validateScenarios(cache, catalog)
	businesses, table := validateBusinesses(cache, catalog)
	phases := []*phase{layers, scenarios, businesses, validateCoverage(table, floods)}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
		for _, l := range p.lines {
			fmt.Printf("      %s\n", l)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateLayers(cache *loader.Cache, catalog config.Catalog) *phase {
	p := &phase{name: "Municipal layers"}
	for _, src := range catalog.Layers {
		if !present.IsBaseLayer(src.Key) {
			p.infof("%s: not drawn by the dashboard", src.Key)
		}
		kind, err := domain.ParseLayerKind(src.Kind)
		if err != nil {
			p.errorf("%s: %v", src.Key, err)
			continue
		}
		checkLayer(p, cache, src.Key, src.File, kind)
	}
	return p
}

func validateScenarios(cache *loader.Cache, catalog config.Catalog) (*phase, []domain.Scenario) {
	p := &phase{name: "Flood scenarios"}
	var floods []domain.Scenario
	for _, src := range catalog.Scenarios {
		if l, ok := checkLayer(p, cache, src.Key, src.File, domain.KindPolygon); ok {
			floods = append(floods, domain.Scenario{Key: src.Key, Name: src.Name, Layer: domain.Some(l)})
		}
	}
	return p, floods
}

func checkLayer(p *phase, cache *loader.Cache, key, path string, kind domain.LayerKind) (domain.Layer, bool) {
	l, err := cache.Layer(path, kind)
	if err != nil {
		p.errorf("%s: %v", key, err)
		return domain.Layer{}, false
	}
	if _, err := domain.ToWGS84(l); err != nil {
		p.errorf("%s: %v", key, err)
		return domain.Layer{}, false
	}
	if l.Len() == 0 {
		p.errorf("%s: no features", key)
	}
	p.infof("%-12s %6d features  %s", key, l.Len(), l.CRS)
	return l, true
}

func validateBusinesses(cache *loader.Cache, catalog config.Catalog) (*phase, domain.Maybe[domain.BusinessTable]) {
	p := &phase{name: "Business registry"}
	if catalog.Businesses == "" {
		p.infof("no workbook configured")
		return p, domain.None[domain.BusinessTable]()
	}
	t, err := cache.Businesses(catalog.Businesses)
	if err != nil {
		// The service starts without businesses, but the operator should know.
		p.errorf("%v", err)
		return p, domain.None[domain.BusinessTable]()
	}

	unknown := 0
	for _, b := range t.Rows {
		if !b.SalaryKnown {
			unknown++
		}
	}
	totals := domain.Aggregate(t)
	p.infof("%d rows, %d dropped without coordinates, %d without average salary", t.Len(), t.Dropped, unknown)
	p.infof("employees %s, payroll %s", present.Integer.Format(totals.Employees), present.BRL(totals.Payroll))

	opts := domain.FilterOptions(t)
	p.infof("%d sectors, %d subsectors, statuses %v", len(opts.Sectors), len(opts.Subsectors), opts.Statuses)
	if domain.DefaultStatuses(opts) == nil {
		p.infof("no %s rows; the status filter starts empty", domain.StatusActive)
	}
	return p, domain.Some(t)
}

func validateCoverage(table domain.Maybe[domain.BusinessTable], floods []domain.Scenario) *phase {
	p := &phase{name: "Scenario coverage"}
	t, ok := table.Get()
	if !ok {
		p.infof("skipped: no business data")
		return p
	}
	for _, s := range floods {
		affected, err := domain.FilterWithin(t, s.Layer)
		if err != nil {
			p.errorf("%s: %v", s.Key, err)
			continue
		}
		pct := domain.Compare(domain.Aggregate(t), domain.Aggregate(affected))
		p.infof("%-12s %6d businesses affected (%s%%)", s.Key, affected.Len(), present.Percent.Format(pct.Count))
	}
	return p
}
