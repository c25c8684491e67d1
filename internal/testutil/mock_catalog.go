// Package testutil provides testing utilities for the course explorer.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
)

// SearchPath is the path the mock serves, mirroring the real endpoint.
const SearchPath = "/api/offerta-formativa/cerca-corsi"

// MockPageResponse defines the behavior for one page.
type MockPageResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable mock of the course search API.
// Pages without a configured response are served as empty result pages.
type MockCatalog struct {
	server *httptest.Server

	mu       sync.Mutex
	pages    map[int]func(w http.ResponseWriter, r *http.Request)
	requests []int
	inFlight int
	maxInFl  int
	headers  []http.Header
}

// NewMockCatalog creates and starts a mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		pages: make(map[int]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			http.NotFound(w, r)
			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			http.Error(w, `{"error": "invalid page"}`, http.StatusBadRequest)
			return
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, page)
		mock.headers = append(mock.headers, r.Header.Clone())
		mock.inFlight++
		if mock.inFlight > mock.maxInFl {
			mock.maxInFl = mock.inFlight
		}
		handler, exists := mock.pages[page]
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"corsi": []}`))
	}))

	return mock
}

// URL returns the full search endpoint URL of the mock.
func (m *MockCatalog) URL() string {
	return m.server.URL + SearchPath
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for one page.
func (m *MockCatalog) SetHandler(page int, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = handler
}

// SetResponse configures a fixed response for one page.
func (m *MockCatalog) SetResponse(page int, resp MockPageResponse) {
	m.SetHandler(page, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCourses serves the given courses on one page.
func (m *MockCatalog) SetCourses(page int, courses []catalog.Course) {
	m.SetResponse(page, NewCoursesResponse(courses))
}

// Requests returns the page numbers requested so far, in arrival order.
func (m *MockCatalog) Requests() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.requests...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockCatalog) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// MaxInFlight returns the highest number of concurrently served requests.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFl
}

// LastHeader returns the headers of the most recent request.
func (m *MockCatalog) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.headers) == 0 {
		return nil
	}
	return m.headers[len(m.headers)-1]
}

// NewCoursesResponse creates a 200 OK page containing courses.
func NewCoursesResponse(courses []catalog.Course) MockPageResponse {
	if courses == nil {
		courses = []catalog.Course{}
	}
	body, err := json.Marshal(catalog.SearchResponse{Courses: courses})
	if err != nil {
		panic(fmt.Sprintf("marshal courses: %v", err))
	}
	return MockPageResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockPageResponse {
	return MockPageResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 response with Retry-After.
func NewRateLimitResponse(retryAfter int) MockPageResponse {
	return MockPageResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Too many requests"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not JSON.
func NewMalformedResponse() MockPageResponse {
	return MockPageResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>maintenance</html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}

// NewConditionalHandler serves courses with an ETag and answers 304 when the
// request carries the same ETag. No Expires header is sent, so cached copies
// live for the client's fallback TTL.
func NewConditionalHandler(etag string, courses []catalog.Course) func(w http.ResponseWriter, r *http.Request) {
	resp := NewCoursesResponse(courses)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(resp.Body))
	}
}

// Course builds a catalog course for tests.
func Course(id int, name, lang, degree string) catalog.Course {
	c := catalog.Course{ID: id, NameEn: name, Language: lang, University: "Università di Test"}
	if degree != "" {
		c.Degree = &catalog.DegreeType{DescriptionEn: degree}
	}
	return c
}

// Courses builds n sequential courses starting at firstID.
func Courses(firstID, n int) []catalog.Course {
	out := make([]catalog.Course, 0, n)
	for i := 0; i < n; i++ {
		id := firstID + i
		out = append(out, Course(id, fmt.Sprintf("Course %d", id), "IT", "EN Triennale"))
	}
	return out
}
