// Package domain models the flood-exposure data of the Rio Grande (RS)
// economic vulnerability dashboard: municipal geometry layers, flood-extent
// scenarios and the georeferenced business registry, plus the filters and
// aggregates computed over them.
//
// # Data Sources
//
// Municipal layers (neighborhoods, blocks, street segments, lots) come from
// the city hall cadastre (PMRG). Flood extents come from two mapped events:
// September 2023 and May 2024. Both are vector files (shapefile or GeoJSON).
//
// Businesses come from a RAIS / Receita Federal extract georeferenced into a
// single workbook. Column names are kept exactly as the extract ships them:
//
//	id                        business identifier (free text)
//	latitude, longitude       WGS-84 decimal degrees
//	Seção                     CNAE section (sector)
//	Denominação               CNAE denomination (subsector)
//	situacao_cadastral_desc   registration status, e.g. "ATIVA", "BAIXADA"
//	Empregados                formal employees (RAIS)
//	Massa_Salarial            monthly payroll mass, BRL
//	MédiaSalarial             average salary, BRL
//
// Rows without a usable latitude or longitude are dropped at load time and
// never reach a filter or an aggregate.
//
// # Coordinate Reference Systems
//
// Every [Layer] carries a CRS identifier in "EPSG:<code>" form. A source that
// declares none is assumed to be geographic WGS-84 (EPSG:4326); a declared CRS
// is kept verbatim. Spatial comparisons always run after both sides have been
// reprojected to EPSG:4326 by [ToWGS84]. Supported source systems:
//
//	EPSG:4326           WGS-84 geographic
//	EPSG:4674           SIRGAS 2000 geographic (treated as WGS-84, sub-metre offset)
//	EPSG:3857           Web Mercator
//	EPSG:327zz/326zz    WGS-84 / UTM zone zz (south/north)
//	EPSG:319zz          SIRGAS 2000 / UTM zones 17S–25S (31977–31985)
//
// Anything else fails with [ErrUnsupportedCRS] instead of being compared in
// mismatched units.
//
// # Containment
//
// A business is "affected" by a scenario when its point lies strictly within
// at least one scenario polygon: inside the outer ring, outside every hole,
// and not on any ring boundary. See [FilterWithin].
//
// # Aggregates
//
// [Aggregate] never returns NaN. An empty table yields zero for every figure,
// and a percentage over a zero-valued population figure is 0.
package domain
