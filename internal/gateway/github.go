// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/repo-trends/internal/domain"
)

// ErrNoToken is returned by FetchQuota when no token is configured.
var ErrNoToken = errors.New("no GitHub token configured")

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	SearchRepositories(ctx context.Context, query domain.SearchQuery) ([]domain.RepositoryRecord, error)
	FetchQuota(ctx context.Context) (domain.Quota, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token        string
	RequireToken bool
	// BaseURL is the REST API root; it must end with a slash. Empty means api.github.com.
	BaseURL string
	// GraphQLURL is the GraphQL endpoint. Empty means api.github.com/graphql.
	GraphQLURL string
	Timeout    time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	token         string
	requireToken  bool
	logger        *log.Logger
}

// rateLimitQuery reads the GraphQL rate limit of the authenticated token.
type rateLimitQuery struct {
	RateLimit struct {
		Limit     int
		Remaining int
		ResetAt   githubv4.DateTime
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
//
// Secondary rate limits are detected but never slept on: the waiter is given a
// zero single-sleep budget, so the limited response reaches the caller as-is.
func NewGitHubGateway(opts Options, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(0, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport, Timeout: opts.Timeout}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API base URL: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		restClient.BaseURL = baseURL
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		token:         opts.Token,
		requireToken:  opts.RequireToken,
		logger:        logger,
	}, nil
}

// SearchRepositories issues a single repository search and maps its items.
// The result never holds more than query.Count records.
func (g *GitHubGateway) SearchRepositories(ctx context.Context, query domain.SearchQuery) ([]domain.RepositoryRecord, error) {
	if g.token == "" {
		if g.requireToken {
			return nil, &domain.FetchError{Hint: domain.HintMissingToken, Message: "set GITHUB_TOKEN to search repositories"}
		}
		g.logger.Debug("Searching without a token")
	}

	g.logger.Debug("Searching repositories", "q", query.Text, "sort", query.Sort, "order", query.Order, "count", query.Count)
	opts := &github.SearchOptions{
		Sort:        string(query.Sort),
		Order:       string(query.Order),
		ListOptions: github.ListOptions{PerPage: query.Count},
	}
	result, resp, err := g.restClient.Search.Repositories(ctx, query.Text, opts)
	if err != nil {
		return nil, toFetchError(resp, err)
	}
	if resp != nil {
		g.logger.Debug("Search completed", "total", result.GetTotal(), "remaining", resp.Rate.Remaining)
	}

	repos := result.Repositories
	if len(repos) > query.Count {
		repos = repos[:query.Count]
	}
	records := make([]domain.RepositoryRecord, 0, len(repos))
	for i, repo := range repos {
		record, err := toRecord(repo)
		if err != nil {
			return nil, &domain.FetchError{
				StatusCode: http.StatusOK,
				Hint:       domain.HintMalformed,
				Message:    fmt.Sprintf("item %d: %v", i, err),
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// FetchQuota reports the GraphQL rate limit of the configured token.
func (g *GitHubGateway) FetchQuota(ctx context.Context) (domain.Quota, error) {
	if g.token == "" {
		return domain.Quota{}, ErrNoToken
	}
	var q rateLimitQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return domain.Quota{}, fmt.Errorf("failed to execute GraphQL query for rate limit: %w", err)
	}
	return domain.Quota{
		Limit:     q.RateLimit.Limit,
		Remaining: q.RateLimit.Remaining,
		ResetAt:   q.RateLimit.ResetAt.Time,
	}, nil
}

// toRecord validates the fields the analysis depends on and copies them out.
func toRecord(repo *github.Repository) (domain.RepositoryRecord, error) {
	switch {
	case repo == nil:
		return domain.RepositoryRecord{}, errors.New("null item")
	case repo.Name == nil:
		return domain.RepositoryRecord{}, errors.New("missing name")
	case repo.FullName == nil:
		return domain.RepositoryRecord{}, errors.New("missing full_name")
	case repo.HTMLURL == nil:
		return domain.RepositoryRecord{}, errors.New("missing html_url")
	case repo.CreatedAt == nil:
		return domain.RepositoryRecord{}, errors.New("missing created_at")
	case repo.StargazersCount == nil || *repo.StargazersCount < 0:
		return domain.RepositoryRecord{}, errors.New("missing or negative stargazers_count")
	case repo.ForksCount == nil || *repo.ForksCount < 0:
		return domain.RepositoryRecord{}, errors.New("missing or negative forks_count")
	}

	record := domain.RepositoryRecord{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		HTMLURL:     repo.GetHTMLURL(),
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Watchers:    repo.GetWatchersCount(),
		CreatedAt:   repo.GetCreatedAt().Time,
	}
	if repo.Language != nil && *repo.Language != "" {
		lang := *repo.Language
		record.Language = &lang
	}
	return record, nil
}

// toFetchError classifies a failed search call.
func toFetchError(resp *github.Response, err error) *domain.FetchError {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var apiErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr):
		return &domain.FetchError{StatusCode: statusOf(rateErr.Response), Hint: domain.HintRateLimit, Message: rateErr.Message}
	case errors.As(err, &abuseErr):
		return &domain.FetchError{StatusCode: statusOf(abuseErr.Response), Hint: domain.HintRateLimit, Message: abuseErr.Message}
	case errors.As(err, &apiErr):
		status := statusOf(apiErr.Response)
		return &domain.FetchError{StatusCode: status, Hint: hintFor(status, apiErr.Message), Message: apiErr.Message}
	case resp != nil && resp.StatusCode == http.StatusOK:
		return &domain.FetchError{StatusCode: http.StatusOK, Hint: domain.HintMalformed, Cause: err}
	default:
		return &domain.FetchError{Hint: domain.HintNetwork, Cause: err}
	}
}

// hintFor picks a human-readable hint from the status and the API's message.
func hintFor(status int, message string) string {
	lower := strings.ToLower(message)
	switch {
	case status == http.StatusUnauthorized || strings.Contains(lower, "bad credentials"):
		return domain.HintInvalidToken
	case (status == http.StatusForbidden || status == http.StatusTooManyRequests) && strings.Contains(lower, "rate limit"):
		return domain.HintRateLimit
	case status == http.StatusTooManyRequests:
		return domain.HintRateLimit
	default:
		return domain.HintAPIError
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
