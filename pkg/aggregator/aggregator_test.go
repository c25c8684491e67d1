package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/course-explorer/internal/testutil"
	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/client"
	"github.com/Sternrassler/course-explorer/pkg/pagination"
	"github.com/google/uuid"
)

func newCatalogClient(t *testing.T, mock *testutil.MockCatalog) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("CourseExplorerTest/1.0")
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 2 * time.Second

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func ids(courses []catalog.Course) []int {
	out := make([]int, len(courses))
	for i, c := range courses {
		out[i] = c.ID
	}
	return out
}

func TestNew_InitialState(t *testing.T) {
	agg := New(pagination.PageFetcherFunc(func(ctx context.Context, page int) ([]catalog.Course, error) {
		return nil, nil
	}), 575)

	st := agg.Snapshot()
	if st.Loading {
		t.Error("new aggregator should not be loading")
	}
	if st.TotalPages != 575 {
		t.Errorf("TotalPages = %d, want 575", st.TotalPages)
	}
	if st.PagesCompleted != 0 || st.LastError != "" || len(st.Courses) != 0 {
		t.Errorf("unexpected initial state %+v", st)
	}
	if st.Finished() {
		t.Error("idle aggregator should not report finished")
	}
}

func TestRun_AllPagesSucceed(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetCourses(1, testutil.Courses(1, 2))
	mock.SetCourses(2, nil)
	mock.SetCourses(3, testutil.Courses(3, 1))

	agg := New(newCatalogClient(t, mock), 3)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := agg.Snapshot()
	if st.Loading {
		t.Error("Loading should be false after the run")
	}
	if st.PagesCompleted != 3 {
		t.Errorf("PagesCompleted = %d, want 3", st.PagesCompleted)
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want empty", st.LastError)
	}
	if got := fmt.Sprint(ids(st.Courses)); got != "[1 2 3]" {
		t.Errorf("course ids = %s, want [1 2 3]", got)
	}
	if _, err := uuid.Parse(st.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", st.RunID, err)
	}
	if !st.Finished() {
		t.Error("Finished() should be true")
	}
	if st.Interrupted {
		t.Error("Interrupted should be false after a complete run")
	}
	if !st.FinishedAt.After(st.StartedAt) && !st.FinishedAt.Equal(st.StartedAt) {
		t.Error("FinishedAt should not precede StartedAt")
	}
	if got := fmt.Sprint(mock.Requests()); got != "[1 2 3]" {
		t.Errorf("requested pages = %s, want [1 2 3]", got)
	}
}

func TestRun_OnePageFails(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	for page := 1; page <= 5; page++ {
		mock.SetCourses(page, testutil.Courses(page*10, 2))
	}
	mock.SetResponse(4, testutil.NewServerErrorResponse())

	agg := New(newCatalogClient(t, mock), 5)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := agg.Snapshot()
	if st.PagesCompleted != 4 {
		t.Errorf("PagesCompleted = %d, want 4", st.PagesCompleted)
	}
	if !strings.Contains(st.LastError, "page 4") || !strings.Contains(st.LastError, "500") {
		t.Errorf("LastError = %q, want page index and status", st.LastError)
	}
	if len(st.Failures) != 1 || st.Failures[0].Page != 4 {
		t.Errorf("Failures = %+v, want one failure on page 4", st.Failures)
	}
	if got := fmt.Sprint(ids(st.Courses)); got != "[10 11 20 21 30 31 50 51]" {
		t.Errorf("course ids = %s", got)
	}
}

func TestRun_LastErrorIsMostRecent(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetResponse(2, testutil.NewServerErrorResponse())
	mock.SetResponse(5, testutil.NewMalformedResponse())
	mock.SetCourses(6, testutil.Courses(1, 1))

	agg := New(newCatalogClient(t, mock), 6)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := agg.Snapshot()
	if !strings.HasPrefix(st.LastError, "page 5:") {
		t.Errorf("LastError = %q, want the page 5 failure", st.LastError)
	}
	if len(st.Failures) != 2 || st.Failures[0].Page != 2 || st.Failures[1].Page != 5 {
		t.Errorf("Failures = %+v", st.Failures)
	}
	if st.PagesCompleted != 4 {
		t.Errorf("PagesCompleted = %d, want 4", st.PagesCompleted)
	}
}

func TestRun_AllPagesFail(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	for page := 1; page <= 3; page++ {
		mock.SetResponse(page, testutil.NewServerErrorResponse())
	}

	agg := New(newCatalogClient(t, mock), 3)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := agg.Snapshot()
	if st.Loading {
		t.Error("Loading should be false after the run")
	}
	if !st.Empty() {
		t.Errorf("collection should be empty, got %d courses", len(st.Courses))
	}
	if st.PagesCompleted != 0 {
		t.Errorf("PagesCompleted = %d, want 0", st.PagesCompleted)
	}
	if !strings.Contains(st.LastError, "page 3") {
		t.Errorf("LastError = %q, want page 3", st.LastError)
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	calls := 0
	agg := New(pagination.PageFetcherFunc(func(ctx context.Context, page int) ([]catalog.Course, error) {
		calls++
		return testutil.Courses(page, 1), nil
	}), 2)

	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	before := agg.Snapshot()

	if err := agg.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("second Run() error = %v, want ErrAlreadyRun", err)
	}
	after := agg.Snapshot()

	if calls != 2 {
		t.Errorf("fetcher called %d times, want 2", calls)
	}
	if before.RunID != after.RunID || len(after.Courses) != 2 || after.PagesCompleted != 2 {
		t.Errorf("second Run() changed the state: %+v", after)
	}
}

func TestRun_Sequential(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	for page := 1; page <= 8; page++ {
		mock.SetResponse(page, testutil.MockPageResponse{
			StatusCode: 200,
			Body:       `{"corsi": [{"id": ` + fmt.Sprint(page) + `}]}`,
			Delay:      5 * time.Millisecond,
		})
	}

	agg := New(newCatalogClient(t, mock), 8)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if mock.MaxInFlight() != 1 {
		t.Errorf("max in-flight requests = %d, want 1", mock.MaxInFlight())
	}
	if got := fmt.Sprint(ids(agg.Courses())); got != "[1 2 3 4 5 6 7 8]" {
		t.Errorf("course ids = %s", got)
	}
}

func TestRun_ConcurrentSnapshots(t *testing.T) {
	release := make(chan struct{})
	agg := New(pagination.PageFetcherFunc(func(ctx context.Context, page int) ([]catalog.Course, error) {
		if page == 2 {
			<-release
		}
		return testutil.Courses(page, 1), nil
	}), 3)

	errCh := make(chan error, 1)
	go func() { errCh <- agg.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for agg.Snapshot().PagesCompleted < 1 {
		if time.Now().After(deadline) {
			t.Fatal("page 1 was not recorded in time")
		}
		time.Sleep(time.Millisecond)
	}

	mid := agg.Snapshot()
	if !mid.Loading {
		t.Error("Loading should be true mid-run")
	}
	if mid.PagesCompleted != 1 || len(mid.Courses) != 1 {
		t.Errorf("mid-run state = %+v", mid)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = agg.Snapshot()
		}()
	}
	wg.Wait()

	close(release)
	select {
	case <-agg.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if agg.Snapshot().PagesCompleted != 3 {
		t.Error("all pages should be completed")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg := New(pagination.PageFetcherFunc(func(ctx context.Context, page int) ([]catalog.Course, error) {
		if page == 2 {
			cancel()
		}
		return testutil.Courses(page, 1), nil
	}), 10)

	err := agg.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	st := agg.Snapshot()
	if st.Loading {
		t.Error("Loading should be false after an interrupted run")
	}
	if !st.Interrupted {
		t.Error("Interrupted should be set after a cancelled run")
	}
	if st.PagesCompleted != 2 {
		t.Errorf("PagesCompleted = %d, want 2", st.PagesCompleted)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	agg := New(pagination.PageFetcherFunc(func(ctx context.Context, page int) ([]catalog.Course, error) {
		return testutil.Courses(1, 2), nil
	}), 1)
	if err := agg.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := agg.Snapshot()
	st.Courses[0].NameEn = "changed"
	if agg.Snapshot().Courses[0].NameEn == "changed" {
		t.Error("Snapshot should not share the course slice")
	}
}

func TestDescribe(t *testing.T) {
	if got := describe(3, errors.New("page 3: boom")); got != "page 3: boom" {
		t.Errorf("describe() = %q", got)
	}
	if got := describe(3, errors.New("boom")); got != "page 3: boom" {
		t.Errorf("describe() = %q", got)
	}
	if got := describe(1, errors.New("page 12: boom")); got != "page 1: page 12: boom" {
		t.Errorf("describe() = %q", got)
	}
}
