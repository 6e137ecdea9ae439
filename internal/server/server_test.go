package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-trends/internal/domain"
	"github.com/naka-gawa/repo-trends/internal/gateway"
)

// mockRunner is a mock implementation of the Runner interface.
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, query domain.SearchQuery) (*domain.Analysis, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

func (m *mockRunner) Quota(ctx context.Context) (domain.Quota, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Quota), args.Error(1)
}

var defaults = domain.SearchQuery{Text: "language:Python", Sort: domain.SortStars, Order: domain.OrderDesc, Count: 20}

func sampleAnalysis(query domain.SearchQuery) *domain.Analysis {
	goLang := "Go"
	return &domain.Analysis{
		ID:    "run-1",
		Query: query,
		Table: domain.AnalyzedTable{
			{
				RepositoryRecord: domain.RepositoryRecord{
					Name: "a", FullName: "org/a", HTMLURL: "https://github.com/org/a", Language: &goLang,
					Stars: 12345, Forks: 10, Watchers: 12345, CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				},
				LogStars: 4.09, LogForks: 1.04, Year: 2020,
			},
			{
				RepositoryRecord: domain.RepositoryRecord{
					Name: "b", FullName: "org/b", HTMLURL: "https://github.com/org/b",
					CreatedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				},
				Year: 2022,
			},
		},
		Languages: []domain.LanguageTotal{{Language: "Go", Repos: 1, Stars: 12345, Forks: 10}, {Language: domain.UnknownLanguage, Repos: 1}},
		Years:     []domain.YearCount{{Year: 2020, Repos: 1}, {Year: 2022, Repos: 1}},
		Summary:   domain.SummaryStats{Count: 2, MeanStars: 6172.5, MeanLogStars: 2.05, EquivalentStars: 111},
	}
}

func newTestServer(t *testing.T, runner Runner) *Server {
	t.Helper()
	s, err := New(runner, defaults, log.New(io.Discard))
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Index(t *testing.T) {
	runner := new(mockRunner)
	rec := get(t, newTestServer(t, runner), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="language:Python"`)
	assert.Contains(t, body, `<option value="stars" selected>`)
	assert.NotContains(t, body, "Summary Statistics")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestServer_Analyze(t *testing.T) {
	query := domain.SearchQuery{Text: "language:Go", Sort: domain.SortForks, Order: domain.OrderAsc, Count: 2}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, query).Return(sampleAnalysis(query), nil).Once()
	runner.On("Quota", mock.Anything).Return(domain.Quota{Limit: 5000, Remaining: 4999}, nil)

	rec := get(t, newTestServer(t, runner), "/analyze?q=language%3AGo&sort=forks&order=asc&count=2")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"Successfully analyzed 2 repositories",
		"12,345",
		"6172.5",
		"2.05",
		"org/a",
		domain.UnknownLanguage,
		"4,999 of 5,000",
		"srcdoc=",
		`<option value="forks" selected>`,
	} {
		assert.Contains(t, body, want)
	}
	runner.AssertExpectations(t)
}

func TestServer_Analyze_WithoutQuota(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, defaults).Return(sampleAnalysis(defaults), nil)
	runner.On("Quota", mock.Anything).Return(domain.Quota{}, gateway.ErrNoToken)

	rec := get(t, newTestServer(t, runner), "/analyze")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "API quota")
}

func TestServer_Analyze_SlowQuota(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, defaults).Return(sampleAnalysis(defaults), nil)
	runner.On("Quota", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(domain.Quota{}, context.DeadlineExceeded)

	s := newTestServer(t, runner)
	s.quotaTimeout = 50 * time.Millisecond

	start := time.Now()
	rec := get(t, s, "/analyze")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "org/a")
	assert.NotContains(t, rec.Body.String(), "API quota")
	runner.AssertExpectations(t)
}

func TestServer_Analyze_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		target       string
		runErr       error
		expectStatus int
		expectHint   string
	}{
		{
			name:         "invalid count",
			target:       "/analyze?count=many",
			expectStatus: http.StatusBadRequest,
			expectHint:   "invalid input",
		},
		{
			name:         "count out of range",
			target:       "/analyze?count=101",
			expectStatus: http.StatusBadRequest,
			expectHint:   "invalid input",
		},
		{
			name:         "rate limited",
			target:       "/analyze",
			runErr:       &domain.FetchError{StatusCode: 403, Hint: domain.HintRateLimit, Message: "API rate limit exceeded"},
			expectStatus: http.StatusTooManyRequests,
			expectHint:   domain.HintRateLimit,
		},
		{
			name:         "invalid token",
			target:       "/analyze",
			runErr:       &domain.FetchError{StatusCode: 401, Hint: domain.HintInvalidToken, Message: "Bad credentials"},
			expectStatus: http.StatusUnauthorized,
			expectHint:   domain.HintInvalidToken,
		},
		{
			name:         "upstream failure",
			target:       "/analyze",
			runErr:       &domain.FetchError{StatusCode: 500, Hint: domain.HintAPIError},
			expectStatus: http.StatusBadGateway,
			expectHint:   domain.HintAPIError,
		},
		{
			name:         "nothing found",
			target:       "/analyze",
			runErr:       domain.ErrNoRecords,
			expectStatus: http.StatusUnprocessableEntity,
			expectHint:   "no repositories found",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := new(mockRunner)
			if tc.runErr != nil {
				runner.On("Run", mock.Anything, mock.Anything).Return(nil, tc.runErr)
			}

			rec := get(t, newTestServer(t, runner), tc.target)

			assert.Equal(t, tc.expectStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.expectHint)
			assert.Contains(t, rec.Body.String(), `class="error"`)
			runner.AssertExpectations(t)
		})
	}
}

func TestServer_APIAnalyze(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("Run", mock.Anything, defaults).Return(sampleAnalysis(defaults), nil)

		rec := get(t, newTestServer(t, runner), "/api/analyze")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var got domain.Analysis
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "run-1", got.ID)
		assert.Len(t, got.Table, 2)
		assert.Equal(t, "Go", got.Languages[0].Language)
	})

	t.Run("error case", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("Run", mock.Anything, defaults).Return(nil, domain.ErrNoRecords)

		rec := get(t, newTestServer(t, runner), "/api/analyze")

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var got apiError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
		assert.Equal(t, "no repositories found", got.Hint)
	})
}

func TestServer_Healthz(t *testing.T) {
	rec := get(t, newTestServer(t, new(mockRunner)), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_ListenAndServe_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, new(mockRunner))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
