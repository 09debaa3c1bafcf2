package domain

// Workbook column names as shipped in the RAIS/Receita extract.
const (
	ColumnID            = "id"
	ColumnLatitude      = "latitude"
	ColumnLongitude     = "longitude"
	ColumnSector        = "Seção"
	ColumnSubsector     = "Denominação"
	ColumnStatus        = "situacao_cadastral_desc"
	ColumnEmployees     = "Empregados"
	ColumnPayroll       = "Massa_Salarial"
	ColumnAverageSalary = "MédiaSalarial"
)

// StatusActive is the registration status selected by default when present.
const StatusActive = "ATIVA"

// Business is one georeferenced row of the business registry.
type Business struct {
	ID        string  `json:"id"`
	Sector    string  `json:"sector,omitempty"`
	Subsector string  `json:"subsector,omitempty"`
	Status    string  `json:"status,omitempty"`
	Employees float64 `json:"employees"`
	Payroll   float64 `json:"payroll"`

	// AverageSalary is meaningful only when SalaryKnown is true; blank cells
	// are left out of the mean.
	AverageSalary float64 `json:"average_salary"`
	SalaryKnown   bool    `json:"-"`

	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BusinessTable is an ordered, read-only set of businesses in one CRS.
// Filters always return a new table; rows are never shared through a
// writable slice.
type BusinessTable struct {
	Source string
	CRS    string
	Rows   []Business

	// Dropped counts source rows excluded at load for lacking valid
	// coordinates. Derived tables leave it zero.
	Dropped int
}

// Len returns the number of rows.
func (t BusinessTable) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t BusinessTable) Empty() bool {
	return len(t.Rows) == 0
}

// derive returns an empty table with t's metadata and room for n rows.
func (t BusinessTable) derive(n int) BusinessTable {
	return BusinessTable{Source: t.Source, CRS: t.CRS, Rows: make([]Business, 0, n)}
}
