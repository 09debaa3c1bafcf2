package domain

// Totals are the aggregate figures of one business table.
type Totals struct {
	Count      int     `json:"count"`
	Employees  float64 `json:"employees"`
	Payroll    float64 `json:"payroll"`
	MeanSalary float64 `json:"mean_salary"`
}

// Percentages express each subset figure as a share of the full population.
type Percentages struct {
	Count      float64 `json:"count"`
	Employees  float64 `json:"employees"`
	Payroll    float64 `json:"payroll"`
	MeanSalary float64 `json:"mean_salary"`
}

// Aggregate computes count, sums and mean salary over t. The mean covers
// rows with a known salary only; with none of those it is zero. An empty
// table yields the zero Totals.
func Aggregate(t BusinessTable) Totals {
	var (
		out    Totals
		salary float64
		known  int
	)
	for _, b := range t.Rows {
		out.Count++
		out.Employees += b.Employees
		out.Payroll += b.Payroll
		if b.SalaryKnown {
			salary += b.AverageSalary
			known++
		}
	}
	if known > 0 {
		out.MeanSalary = salary / float64(known)
	}
	return out
}

// Compare returns subset as a percentage of full, metric by metric.
func Compare(full, subset Totals) Percentages {
	return Percentages{
		Count:      percentage(float64(subset.Count), float64(full.Count)),
		Employees:  percentage(subset.Employees, full.Employees),
		Payroll:    percentage(subset.Payroll, full.Payroll),
		MeanSalary: percentage(subset.MeanSalary, full.MeanSalary),
	}
}

// percentage is part/whole*100, with 0 when whole is zero.
func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
