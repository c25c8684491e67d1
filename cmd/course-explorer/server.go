package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/aggregator"
	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/filter"
	"github.com/Sternrassler/course-explorer/pkg/metrics"
	"github.com/Sternrassler/course-explorer/pkg/view"
	"github.com/rs/zerolog"
)

type statusResponse struct {
	view.Status
	StartedAt  time.Time                `json:"started_at,omitzero"`
	FinishedAt time.Time                `json:"finished_at,omitzero"`
	Failures   []aggregator.PageFailure `json:"failures,omitempty"`
}

type coursesResponse struct {
	Count   int              `json:"count"`
	Loading bool             `json:"loading"`
	Courses []catalog.Course `json:"courses"`
}

func newMux(agg *aggregator.Aggregator, v *view.View) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /status", statusHandler(agg, v))
	mux.HandleFunc("GET /courses", coursesHandler(agg))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func statusHandler(agg *aggregator.Aggregator, v *view.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := agg.Snapshot()
		writeJSON(w, http.StatusOK, statusResponse{
			Status:     v.Status(),
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
			Failures:   st.Failures,
		})
	}
}

// coursesHandler filters with criteria taken from the query string:
// q (text), english (bool) and degree.
func coursesHandler(agg *aggregator.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		criteria := filter.Criteria{
			Text:   query.Get("q"),
			Degree: filter.ParseDegree(query.Get("degree")),
		}
		if s := query.Get("english"); s != "" {
			on, err := strconv.ParseBool(s)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid english value %q", s), http.StatusBadRequest)
				return
			}
			criteria.EnglishOnly = on
		}

		st := agg.Snapshot()
		courses := filter.Apply(st.Courses, criteria)
		if courses == nil {
			courses = []catalog.Course{}
		}
		writeJSON(w, http.StatusOK, coursesResponse{
			Count:   len(courses),
			Loading: st.Loading,
			Courses: courses,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serve runs the aggregation in the background and serves its state until
// ctx is cancelled.
func serve(ctx context.Context, addr string, agg *aggregator.Aggregator, v *view.View, logger zerolog.Logger) int {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(agg, v),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		if err := agg.Run(ctx); err != nil {
			logger.Warn().Err(err).Msg("Aggregation did not complete")
			return
		}
		logger.Info().Str("status", v.Status().Message).Msg("Aggregation complete - still serving")
	}()

	code := exitOK
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed")
		code = exitFailure
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Server shutdown")
	}
	return code
}
