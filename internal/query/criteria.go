// Package query builds list queries from loosely-typed request criteria.
//
// Criteria arrive as Values, are normalized into a SortSpec and FilterSpec,
// and the FilterSpec is turned into a storage-agnostic Predicate. Stores
// translate Predicate and SortSpec into their native query form.
package query

import "strings"

// orderDescending is the only order value that selects descending sort.
const orderDescending = "true"

// SortField is one sort key. Position in a SortSpec is the tie-break order.
type SortField struct {
	Field      string
	Descending bool
}

// SortSpec is an ordered list of sort keys. Empty means store default order.
type SortSpec []SortField

// FilterClause matches Field against Pattern as a case-insensitive regular
// expression fragment.
type FilterClause struct {
	Field   string
	Pattern string
}

// FilterSpec is an ordered list of clauses combined with logical AND.
// Duplicate fields stay separate terms.
type FilterSpec []FilterClause

// Normalize turns raw sort and filter criteria into canonical specs.
//
// Fields and their companions must share a shape: two scalars produce one
// entry, two lists are paired by index. Any other combination yields an empty
// spec rather than an error. Field names are not checked here.
func Normalize(sortFields, sortOrders, filterIDs, filterValues Values) (SortSpec, FilterSpec) {
	sort := pairUp(sortFields, sortOrders, func(field, order string) SortField {
		return SortField{Field: field, Descending: order == orderDescending}
	})

	filter := pairUp(filterIDs, filterValues, func(field, pattern string) FilterClause {
		return FilterClause{Field: field, Pattern: pattern}
	})

	return SortSpec(sort), FilterSpec(filter)
}

// NormalizeSort is Normalize restricted to sort criteria.
func NormalizeSort(fields, orders Values) SortSpec {
	sort, _ := Normalize(fields, orders, Absent(), Absent())
	return sort
}

// NormalizeFilter is Normalize restricted to filter criteria.
func NormalizeFilter(ids, values Values) FilterSpec {
	_, filter := Normalize(Absent(), Absent(), ids, values)
	return filter
}

// pairUp walks keys in order and pairs each with the companion at the same
// index. A missing companion is passed as the empty string.
func pairUp[T any](keys, companions Values, mk func(key, companion string) T) []T {
	if !sameShape(keys, companions) {
		return nil
	}

	out := make([]T, 0, keys.Len())
	for i := 0; i < keys.Len(); i++ {
		key, _ := keys.At(i)
		key = strings.TrimSpace(key)
		companion, _ := companions.At(i)
		out = append(out, mk(key, companion))
	}
	return out
}
