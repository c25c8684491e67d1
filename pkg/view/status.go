package view

import (
	"github.com/Sternrassler/course-explorer/pkg/aggregator"
	"github.com/Sternrassler/course-explorer/pkg/filter"
)

// Phase is the stage of the aggregation run as shown to the user.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"

	// PhaseInterrupted marks a run cancelled before its last page.
	PhaseInterrupted Phase = "interrupted"
)

// Status is the status line of the explorer.
type Status struct {
	Phase          Phase  `json:"phase"`
	RunID          string `json:"run_id,omitempty"`
	Loading        bool   `json:"loading"`
	PagesCompleted int    `json:"pages_completed"`
	TotalPages     int    `json:"total_pages"`
	Total          int    `json:"total"`
	Displayed      int    `json:"displayed"`
	FetchErrors    int    `json:"fetch_errors"`

	// Error is the most recent page failure while loading. After the run it is
	// set only when nothing could be fetched.
	Error string `json:"error,omitempty"`

	Message string `json:"message"`
}

// Blocking reports whether the run finished without any course.
func (s Status) Blocking() bool {
	return s.Phase == PhaseFailed
}

// Status derives the status line from the current aggregation state.
func (v *View) Status() Status {
	st := v.agg.Snapshot()
	displayed := len(filter.Apply(st.Courses, v.Criteria()))
	return v.status(st, displayed)
}

func (v *View) status(st aggregator.State, displayed int) Status {
	s := Status{
		RunID:          st.RunID,
		Loading:        st.Loading,
		PagesCompleted: st.PagesCompleted,
		TotalPages:     st.TotalPages,
		Total:          len(st.Courses),
		Displayed:      displayed,
		FetchErrors:    len(st.Failures),
	}

	p := v.printer
	switch {
	case st.Loading:
		s.Phase = PhaseLoading
		s.Error = st.LastError
		s.Message = p.Sprintf("Fetching P%d/%d | Total:%d | Show:%d",
			st.PagesCompleted+len(st.Failures), st.TotalPages, s.Total, s.Displayed)
	case !st.Finished():
		s.Phase = PhaseIdle
		s.Message = "Initializing..."
	case st.Interrupted:
		s.Phase = PhaseInterrupted
		s.Message = p.Sprintf("Interrupted at P%d/%d. Total: %d. Displayed: %d.",
			st.PagesCompleted+len(st.Failures), st.TotalPages, s.Total, s.Displayed)
	case st.Empty() && st.LastError != "":
		s.Phase = PhaseFailed
		s.Error = st.LastError
		s.Message = p.Sprintf("No courses could be fetched: %s", st.LastError)
	case s.FetchErrors > 0:
		s.Phase = PhaseComplete
		s.Message = p.Sprintf("Complete (%d fetch errors). Total: %d. Displayed: %d.",
			s.FetchErrors, s.Total, s.Displayed)
	default:
		s.Phase = PhaseComplete
		s.Message = p.Sprintf("Complete. Total: %d. Displayed: %d.", s.Total, s.Displayed)
	}
	return s
}
