package query

type valuesKind uint8

const (
	kindAbsent valuesKind = iota
	kindOne
	kindMany
)

// Values is a query criterion as the transport delivers it: absent, a single
// scalar, or a list. The shape matters to Normalize, so a one-element list is
// not the same thing as a scalar.
type Values struct {
	kind  valuesKind
	items []string
}

// Absent returns a Values with nothing in it.
func Absent() Values {
	return Values{kind: kindAbsent}
}

// One returns a scalar Values.
func One(v string) Values {
	return Values{kind: kindOne, items: []string{v}}
}

// Many returns a list Values. The slice is copied.
func Many(vs ...string) Values {
	items := make([]string, len(vs))
	copy(items, vs)
	return Values{kind: kindMany, items: items}
}

// ValuesFromQuery collapses repeated query parameters the way the HTTP layer
// does: no values is absent, one value is a scalar, more is a list.
func ValuesFromQuery(vs []string) Values {
	switch len(vs) {
	case 0:
		return Absent()
	case 1:
		return One(vs[0])
	default:
		return Many(vs...)
	}
}

func (v Values) IsAbsent() bool { return v.kind == kindAbsent }
func (v Values) IsOne() bool    { return v.kind == kindOne }
func (v Values) IsMany() bool   { return v.kind == kindMany }

// Len returns the number of items held.
func (v Values) Len() int { return len(v.items) }

// At returns the item at index i, or false when i is out of range.
func (v Values) At(i int) (string, bool) {
	if i < 0 || i >= len(v.items) {
		return "", false
	}
	return v.items[i], true
}

// sameShape reports whether both values are scalars or both are lists.
func sameShape(a, b Values) bool {
	if a.kind == kindAbsent || b.kind == kindAbsent {
		return false
	}
	return a.kind == b.kind
}
