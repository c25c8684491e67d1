// Package filter derives the filtered view of an aggregated course collection.
//
// Apply is a pure function: it never mutates its input, preserves input order
// and is idempotent, so it can be recomputed whenever either the collection or
// the criteria change.
package filter

import (
	"strings"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"golang.org/x/text/cases"
)

// EnglishLanguage is the language code a course must carry to pass the
// English-only predicate.
const EnglishLanguage = "EN"

// Degree selects courses by their English degree description.
// The zero value disables the predicate.
type Degree string

const (
	// DegreeAny disables degree filtering.
	DegreeAny Degree = ""

	// DegreeBachelor matches first-cycle (three year) degrees.
	DegreeBachelor Degree = "EN Triennale"

	// DegreeMaster matches second-cycle degrees.
	DegreeMaster Degree = "EN Magistrale"
)

// KnownDegrees lists the degree values offered for selection.
var KnownDegrees = []Degree{DegreeBachelor, DegreeMaster}

// ParseDegree maps user input to a Degree. Empty input and "all" select
// DegreeAny; common aliases select the known degrees; anything else is taken
// literally and compared exactly.
func ParseDegree(s string) Degree {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any", "all degree types":
		return DegreeAny
	case "triennale", "bachelor", "en triennale":
		return DegreeBachelor
	case "magistrale", "master", "en magistrale":
		return DegreeMaster
	default:
		return Degree(s)
	}
}

// Criteria is the set of user-selected predicates.
type Criteria struct {
	// Text matches course names case-insensitively as a substring.
	// Surrounding whitespace is trimmed first, so " comp" matches
	// "Computer Science" and whitespace-only text disables the predicate.
	Text string

	// EnglishOnly keeps only courses taught in English.
	EnglishOnly bool

	// Degree keeps only courses whose degree description equals it.
	Degree Degree
}

// IsDefault reports whether no predicate is active.
func (c Criteria) IsDefault() bool {
	return strings.TrimSpace(c.Text) == "" && !c.EnglishOnly && c.Degree == DegreeAny
}

// Apply returns the courses satisfying every active predicate of criteria.
// With default criteria the input slice is returned unchanged.
func Apply(courses []catalog.Course, criteria Criteria) []catalog.Course {
	if criteria.IsDefault() {
		return courses
	}

	m := newMatcher(criteria)
	out := make([]catalog.Course, 0, len(courses))
	for _, c := range courses {
		if m.match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Match reports whether a single course satisfies criteria.
func Match(course catalog.Course, criteria Criteria) bool {
	return newMatcher(criteria).match(course)
}

type matcher struct {
	fold        cases.Caser
	needle      string
	englishOnly bool
	degree      Degree
}

func newMatcher(criteria Criteria) *matcher {
	m := &matcher{
		fold:        cases.Fold(),
		englishOnly: criteria.EnglishOnly,
		degree:      criteria.Degree,
	}
	if text := strings.TrimSpace(criteria.Text); text != "" {
		m.needle = m.fold.String(text)
	}
	return m
}

func (m *matcher) match(c catalog.Course) bool {
	if m.needle != "" && !strings.Contains(m.fold.String(c.NameEn), m.needle) {
		return false
	}
	if m.englishOnly && c.Language != EnglishLanguage {
		return false
	}
	if m.degree != DegreeAny && c.DegreeDescription() != string(m.degree) {
		return false
	}
	return true
}
