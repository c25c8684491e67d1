// Package aggregator collects the full course catalog by walking every page
// once and records progress and per-page failures while it does so.
//
// An Aggregator runs exactly once. Readers call Snapshot at any time, from
// any goroutine, and receive a copy of the current state.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/logging"
	"github.com/Sternrassler/course-explorer/pkg/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAlreadyRun is returned by Run on an aggregator that has been started before.
var ErrAlreadyRun = errors.New("aggregation already run")

// PageFailure records one page that could not be fetched.
type PageFailure struct {
	Page  int       `json:"page"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// State is a point-in-time view of an aggregation run.
type State struct {
	RunID          string           `json:"run_id,omitempty"`
	Courses        []catalog.Course `json:"-"`
	Loading        bool             `json:"loading"`
	PagesCompleted int              `json:"pages_completed"`
	TotalPages     int              `json:"total_pages"`
	LastError      string           `json:"last_error,omitempty"`
	Interrupted    bool             `json:"interrupted,omitempty"`
	Failures       []PageFailure    `json:"failures,omitempty"`
	StartedAt      time.Time        `json:"started_at,omitzero"`
	FinishedAt     time.Time        `json:"finished_at,omitzero"`
}

// Finished reports whether a run has started and completed.
func (s State) Finished() bool {
	return !s.Loading && !s.FinishedAt.IsZero()
}

// Empty reports whether no course has been collected.
func (s State) Empty() bool {
	return len(s.Courses) == 0
}

// Aggregator walks the catalog once and accumulates the results.
type Aggregator struct {
	walker *pagination.Walker
	logger zerolog.Logger

	mu      sync.RWMutex
	state   State
	started bool
	done    chan struct{}
}

// New creates an idle aggregator that will request totalPages pages from fetcher.
func New(fetcher pagination.PageFetcher, totalPages int) *Aggregator {
	cfg := pagination.DefaultConfig()
	cfg.TotalPages = totalPages
	walker := pagination.NewWalker(fetcher, cfg)

	return &Aggregator{
		walker: walker,
		logger: logging.NewLogger(logging.ComponentAggregator),
		state:  State{TotalPages: walker.TotalPages()},
		done:   make(chan struct{}),
	}
}

// Run fetches pages 1..N in order. Page failures are recorded and never stop
// the run. Cancelling ctx stops the run before the next page.
// A second call returns ErrAlreadyRun and leaves the state untouched.
func (a *Aggregator) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyRun
	}
	a.started = true
	a.state = State{
		RunID:      uuid.NewString(),
		Loading:    true,
		TotalPages: a.walker.TotalPages(),
		StartedAt:  time.Now(),
	}
	runID := a.state.RunID
	a.mu.Unlock()

	defer close(a.done)

	logger := a.logger.With().Str("run_id", runID).Logger()
	logger.Info().Int("total_pages", a.walker.TotalPages()).Msg("Aggregation started")

	aggregatorPagesTotal.Set(float64(a.walker.TotalPages()))
	aggregatorPagesCompleted.Set(0)
	aggregatorCourses.Set(0)
	aggregatorLoading.Set(1)

	summary, walkErr := a.walker.Walk(ctx, a.record)

	a.mu.Lock()
	a.state.Loading = false
	a.state.Interrupted = walkErr != nil
	a.state.FinishedAt = time.Now()
	st := a.state
	a.mu.Unlock()

	aggregatorLoading.Set(0)
	aggregatorRunDuration.Observe(st.FinishedAt.Sub(st.StartedAt).Seconds())

	event := logger.Info()
	if len(st.Courses) == 0 {
		event = logger.Error()
	}
	event.
		Int("pages_completed", st.PagesCompleted).
		Int("failures", len(st.Failures)).
		Int("courses", len(st.Courses)).
		Dur("duration", summary.Duration).
		Msg("Aggregation finished")

	if walkErr != nil {
		return fmt.Errorf("aggregation interrupted: %w", walkErr)
	}
	return nil
}

// record applies one page outcome to the state.
func (a *Aggregator) record(r pagination.PageResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Error != nil {
		msg := describe(r.PageNumber, r.Error)
		a.state.LastError = msg
		a.state.Failures = append(a.state.Failures, PageFailure{Page: r.PageNumber, Error: msg, At: time.Now()})
		aggregatorPageFailuresTotal.Inc()
		return
	}

	a.state.Courses = append(a.state.Courses, r.Courses...)
	a.state.PagesCompleted++
	aggregatorPagesCompleted.Set(float64(a.state.PagesCompleted))
	aggregatorCourses.Set(float64(len(a.state.Courses)))
}

// describe makes sure the failure message names the page.
func describe(page int, err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, fmt.Sprintf("page %d:", page)) {
		return msg
	}
	return fmt.Sprintf("page %d: %s", page, msg)
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := a.state
	st.Courses = append([]catalog.Course(nil), a.state.Courses...)
	st.Failures = append([]PageFailure(nil), a.state.Failures...)
	return st
}

// Courses returns a copy of the collected courses.
func (a *Aggregator) Courses() []catalog.Course {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]catalog.Course(nil), a.state.Courses...)
}

// Done is closed when Run returns.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}
