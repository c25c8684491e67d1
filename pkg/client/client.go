// Package client fetches single pages of the Universitaly course search API
// with optional caching, pacing, back-off tracking and retries.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/cache"
	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/logging"
	"github.com/Sternrassler/course-explorer/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public course search endpoint.
const DefaultBaseURL = "https://universitaly-backend.cineca.it/api/offerta-formativa/cerca-corsi"

// Prometheus metrics for catalog requests.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog page requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog page request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
	})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog page errors by class",
	}, []string{"class"})
)

// DefaultQuery returns the fixed search parameters selecting every course in
// random order. The page parameter is added per request.
func DefaultQuery() url.Values {
	q := url.Values{}
	q.Set("searchType", "u")
	q.Set("tipoLaurea", "")
	q.Set("tipoClasse", "0")
	q.Set("durata", "")
	q.Set("lingua", "")
	q.Set("tipoAccesso", "")
	q.Set("modalitaErogazione", "")
	q.Set("searchText", "")
	q.Set("area", "")
	q.Set("order", "RND")
	q.Set("provincia", "")
	q.Set("provinciaSigla", "")
	return q
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the course search endpoint
	BaseURL string

	// Query holds the fixed search parameters (page is set per request)
	Query url.Values

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per page request
	Timeout time.Duration

	// FetchDelay is the minimum spacing between page requests
	FetchDelay time.Duration

	// Retry policy; MaxAttempts 1 disables retries
	Retry RetryConfig

	// Redis enables the page cache and shared back-off state (optional)
	Redis *redis.Client

	// CacheTTL is the lifetime of cached pages without an Expires header
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration for the public catalog.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Query:     DefaultQuery(),
		UserAgent: userAgent,
		Timeout:   25 * time.Second,
		Retry:     DefaultRetryConfig(),
		CacheTTL:  cache.DefaultTTL,
	}
}

// Client fetches catalog pages.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	cache      *cache.Manager
	tracker    *ratelimit.Tracker
	pacer      *ratelimit.Pacer
	logger     zerolog.Logger
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s) (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	if cfg.Query == nil {
		cfg.Query = DefaultQuery()
	}
	cfg.Retry = cfg.Retry.normalize()

	logger := logging.NewLogger(logging.ComponentClient)

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		tracker: ratelimit.NewTracker(cfg.Redis, logger),
		pacer:   ratelimit.NewPacer(cfg.FetchDelay),
		logger:  logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	logger.Debug().
		Str("base_url", base.String()).
		Dur("timeout", cfg.Timeout).
		Dur("fetch_delay", c.pacer.Delay()).
		Int("max_attempts", cfg.Retry.MaxAttempts).
		Bool("cache", c.cache != nil).
		Msg("Catalog client configured")

	return c, nil
}

// PageURL returns the request URL for a 1-indexed page.
func (c *Client) PageURL(page int) string {
	q := url.Values{}
	for k, v := range c.config.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))

	u := *c.baseURL
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage fetches and decodes one page of search results.
// Any failure is returned as a *PageError carrying the page number.
func (c *Client) FetchPage(ctx context.Context, page int) ([]catalog.Course, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "pacing interrupted", Err: err}
	}
	if err := c.tracker.Wait(ctx); err != nil {
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "back-off interrupted", Err: err}
	}

	key := cache.PageKey{Endpoint: c.baseURL.Host + c.baseURL.Path, Page: page, Query: c.config.Query}

	var stale *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			courses, derr := decodePage(page, entry.Data)
			if derr == nil {
				catalogRequestsTotal.WithLabelValues("cache").Inc()
				c.logger.Debug().Int("page", page).Msg("Page served from cache")
				return courses, nil
			}
			c.logger.Warn().Err(derr).Int("page", page).Msg("Dropping undecodable cache entry")
			_ = c.cache.Delete(ctx, key)
		case errors.Is(err, cache.ErrCacheMiss):
			stale = entry
		default:
			c.logger.Warn().Err(err).Int("page", page).Msg("Cache get error")
		}
	}

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		var ferr error
		body, ferr = c.fetchOnce(ctx, page, key, stale)
		return ferr
	})
	if err != nil {
		var pe *PageError
		if errors.As(err, &pe) {
			catalogErrorsTotal.WithLabelValues(string(pe.ErrorClass)).Inc()
			return nil, err
		}
		catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "request aborted", Err: err}
	}

	courses, err := decodePage(page, body)
	if err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		if c.cache != nil {
			_ = c.cache.Delete(ctx, key)
		}
		return nil, err
	}
	return courses, nil
}

// fetchOnce performs a single HTTP round trip and returns the response body.
func (c *Client) fetchOnce(ctx context.Context, page int, key cache.PageKey, stale *cache.Entry) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(page), nil)
	if err != nil {
		return nil, &PageError{Page: page, ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if stale != nil {
		cache.AddConditionalHeaders(req, stale)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	catalogRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Warn().Err(err).Int("page", page).Msg("HTTP request failed")
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		c.logger.Debug().Int("page", page).Msg("304 Not Modified - using cache")
		if c.cache != nil {
			var expires time.Time
			if s := resp.Header.Get("Expires"); s != "" {
				expires, _ = http.ParseTime(s)
			}
			if err := c.cache.Refresh(ctx, key, stale, expires); err != nil {
				c.logger.Warn().Err(err).Int("page", page).Msg("Failed to refresh cache entry")
			}
		}
		return stale.Data, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		if err := c.tracker.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record back-off state")
		}
		_, _ = io.Copy(io.Discard, resp.Body)

		c.logger.Warn().
			Int("page", page).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")

		return nil, &PageError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	if c.cache == nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
		}
		return body, nil
	}

	entry, err := cache.ResponseToEntry(resp, c.cache.TTL())
	if err != nil {
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Int("page", page).Msg("Failed to cache page")
	}
	return entry.Data, nil
}

// decodePage parses a search response body.
func decodePage(page int, body []byte) ([]catalog.Course, error) {
	var resp catalog.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &PageError{Page: page, StatusCode: http.StatusOK, ErrorClass: ErrorClassDecode, Message: "invalid JSON body", Err: err}
	}
	return resp.Courses, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Cache returns the page cache, or nil when Redis is not configured.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
