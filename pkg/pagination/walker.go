package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/rs/zerolog/log"
)

// DefaultTotalPages is the number of pages the public catalog is walked for.
const DefaultTotalPages = 575

// Config holds walker configuration
type Config struct {
	// TotalPages is the number of pages to request, starting at 1
	TotalPages int
	// ProgressEvery controls how often progress is logged (in pages)
	ProgressEvery int
}

// DefaultConfig returns the configuration for a full catalog walk
func DefaultConfig() Config {
	return Config{
		TotalPages:    DefaultTotalPages,
		ProgressEvery: 50,
	}
}

// PageFetcher fetches and decodes a single 1-indexed page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]catalog.Course, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page int) ([]catalog.Course, error)

// FetchPage calls f(ctx, page).
func (f PageFetcherFunc) FetchPage(ctx context.Context, page int) ([]catalog.Course, error) {
	return f(ctx, page)
}

// PageResult represents the outcome of fetching a single page
type PageResult struct {
	PageNumber int
	Courses    []catalog.Course
	Error      error
}

// Summary describes a finished walk.
type Summary struct {
	Pages     int
	Succeeded int
	Failed    int
	Courses   int
	Duration  time.Duration
}

// Walker fetches pages sequentially
type Walker struct {
	fetcher PageFetcher
	config  Config
}

// NewWalker creates a new walker
func NewWalker(fetcher PageFetcher, config Config) *Walker {
	if config.TotalPages < 0 {
		config.TotalPages = 0
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 50
	}

	return &Walker{
		fetcher: fetcher,
		config:  config,
	}
}

// TotalPages returns the number of pages the walker requests.
func (w *Walker) TotalPages() int {
	return w.config.TotalPages
}

// Walk fetches pages 1..TotalPages in order and passes every result to fn.
// Page errors never stop the walk. A cancelled context stops it before the
// next page; the summary then covers the pages walked so far.
func (w *Walker) Walk(ctx context.Context, fn func(PageResult)) (Summary, error) {
	start := time.Now()
	total := w.config.TotalPages
	summary := Summary{}

	log.Info().
		Int("total_pages", total).
		Msg("Starting sequential page fetch")

	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			log.Warn().
				Err(err).
				Int("walked", summary.Pages).
				Int("total", total).
				Msg("Page walk cancelled")
			return summary, fmt.Errorf("walk stopped before page %d: %w", page, err)
		}

		courses, err := w.fetcher.FetchPage(ctx, page)
		summary.Pages++
		if err != nil {
			summary.Failed++
			log.Warn().
				Err(err).
				Int("page", page).
				Msg("Page fetch failed")
		} else {
			summary.Succeeded++
			summary.Courses += len(courses)
		}

		if fn != nil {
			fn(PageResult{PageNumber: page, Courses: courses, Error: err})
		}

		// Progress logging every N pages
		if page%w.config.ProgressEvery == 0 {
			log.Info().
				Int("fetched", page).
				Int("total", total).
				Int("failed", summary.Failed).
				Float64("progress_pct", float64(page)/float64(total)*100).
				Msg("Fetch progress")
		}
	}

	summary.Duration = time.Since(start)
	log.Info().
		Int("pages", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("courses", summary.Courses).
		Dur("duration", summary.Duration).
		Msg("Fetch complete")

	return summary, nil
}
