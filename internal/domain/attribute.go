package domain

import "sort"

// Constraints are allow-lists for the three categorical fields. An empty list
// places no restriction on its field.
type Constraints struct {
	Sectors    []string `json:"sectors"`
	Subsectors []string `json:"subsectors"`
	Statuses   []string `json:"statuses"`
}

// Options lists the selectable values of each categorical field.
type Options struct {
	Sectors    []string `json:"sectors"`
	Subsectors []string `json:"subsectors"`
	Statuses   []string `json:"statuses"`
}

// FilterAttributes keeps the rows that satisfy every non-empty constraint.
func FilterAttributes(t BusinessTable, c Constraints) BusinessTable {
	sectors := toSet(c.Sectors)
	subsectors := toSet(c.Subsectors)
	statuses := toSet(c.Statuses)

	out := t.derive(0)
	for _, b := range t.Rows {
		if !allowed(sectors, b.Sector) || !allowed(subsectors, b.Subsector) || !allowed(statuses, b.Status) {
			continue
		}
		out.Rows = append(out.Rows, b)
	}
	return out
}

// FilterOptions derives, per field, the distinct non-empty values present in
// t, sorted ascending. Options shrink as upstream filters narrow t.
func FilterOptions(t BusinessTable) Options {
	sectors := map[string]struct{}{}
	subsectors := map[string]struct{}{}
	statuses := map[string]struct{}{}
	for _, b := range t.Rows {
		addNonEmpty(sectors, b.Sector)
		addNonEmpty(subsectors, b.Subsector)
		addNonEmpty(statuses, b.Status)
	}
	return Options{
		Sectors:    sortedKeys(sectors),
		Subsectors: sortedKeys(subsectors),
		Statuses:   sortedKeys(statuses),
	}
}

// DefaultStatuses is the status selection applied when the user has not
// chosen one: "ATIVA" if it is among the options, nothing otherwise.
func DefaultStatuses(o Options) []string {
	for _, s := range o.Statuses {
		if s == StatusActive {
			return []string{StatusActive}
		}
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func allowed(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
