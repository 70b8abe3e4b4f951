package query

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/BradenHooton/useradmin/internal/models"
)

// Match is a single predicate term: Field contains Pattern, ignoring case.
type Match struct {
	Field   string
	Pattern string
}

// Predicate is a conjunction of Match terms. The zero value matches every
// record.
type Predicate struct {
	Terms []Match
}

// Build turns a FilterSpec into a Predicate. It performs no I/O and does not
// check field names; stores treat unknown fields as matching nothing.
func Build(filter FilterSpec) Predicate {
	if len(filter) == 0 {
		return Predicate{}
	}

	terms := make([]Match, len(filter))
	for i, clause := range filter {
		terms[i] = Match{Field: clause.Field, Pattern: clause.Pattern}
	}
	return Predicate{Terms: terms}
}

// MatchesAll reports whether the predicate has no terms.
func (p Predicate) MatchesAll() bool {
	return len(p.Terms) == 0
}

// Validate rejects patterns longer than maxLen runes or that do not compile.
// A maxLen of zero disables the length check.
func (p Predicate) Validate(maxLen int) error {
	for _, term := range p.Terms {
		if maxLen > 0 && utf8.RuneCountInString(term.Pattern) > maxLen {
			return fmt.Errorf("%w: pattern for %q exceeds %d characters", models.ErrInvalidPattern, term.Field, maxLen)
		}
		if _, err := compileTerm(term); err != nil {
			return err
		}
	}
	return nil
}

// FieldLookup resolves a field name on a record. ok is false when the record
// has no such field.
type FieldLookup func(field string) (value string, ok bool)

// Matcher evaluates a compiled Predicate in process.
type Matcher struct {
	terms []compiledTerm
}

type compiledTerm struct {
	field string
	re    *regexp.Regexp
}

// Compile prepares the predicate for in-process evaluation.
func (p Predicate) Compile() (*Matcher, error) {
	m := &Matcher{terms: make([]compiledTerm, 0, len(p.Terms))}
	for _, term := range p.Terms {
		ct, err := compileTerm(term)
		if err != nil {
			return nil, err
		}
		m.terms = append(m.terms, ct)
	}
	return m, nil
}

// Matches reports whether every term matches the record behind lookup.
func (m *Matcher) Matches(lookup FieldLookup) bool {
	for _, term := range m.terms {
		value, ok := lookup(term.field)
		if !ok || !term.re.MatchString(value) {
			return false
		}
	}
	return true
}

func compileTerm(term Match) (compiledTerm, error) {
	re, err := regexp.Compile("(?i)" + term.Pattern)
	if err != nil {
		return compiledTerm{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidPattern, term.Pattern, err)
	}
	return compiledTerm{field: term.Field, re: re}, nil
}
