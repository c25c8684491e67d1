// Package view holds the presentation state of the course explorer: the
// active filter criteria and the status line derived from an aggregation run.
package view

import (
	"sync"

	"github.com/Sternrassler/course-explorer/pkg/aggregator"
	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/filter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// View combines an aggregator with user-selected criteria.
// It is safe for concurrent use.
type View struct {
	agg     *aggregator.Aggregator
	printer *message.Printer

	mu       sync.RWMutex
	criteria filter.Criteria
}

// Option configures a View.
type Option func(*View)

// WithLanguage formats status numbers for tag.
func WithLanguage(tag language.Tag) Option {
	return func(v *View) {
		v.printer = message.NewPrinter(tag)
	}
}

// New creates a view over agg with default criteria.
func New(agg *aggregator.Aggregator, opts ...Option) *View {
	v := &View{
		agg:     agg,
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetText sets the name search text.
func (v *View) SetText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria.Text = text
}

// SetEnglishOnly toggles the English-only predicate.
func (v *View) SetEnglishOnly(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria.EnglishOnly = on
}

// SetDegree sets the degree predicate. filter.DegreeAny clears it.
func (v *View) SetDegree(degree filter.Degree) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria.Degree = degree
}

// SetCriteria replaces all predicates at once.
func (v *View) SetCriteria(c filter.Criteria) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria = c
}

// Criteria returns the active criteria.
func (v *View) Criteria() filter.Criteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.criteria
}

// Filtered returns the aggregated courses matching the active criteria,
// recomputed from the current collection on every call.
func (v *View) Filtered() []catalog.Course {
	return filter.Apply(v.agg.Courses(), v.Criteria())
}
