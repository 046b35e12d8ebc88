// Package github fetches a user's profile, repositories and contribution
// counts from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/okian/meritrack/internal/domain/gitstats"
	"github.com/okian/meritrack/pkg/logger"
	"github.com/okian/meritrack/pkg/metrics"
)

const (
	defaultBaseURL          = "https://api.github.com"
	defaultUserAgent        = "meritrack/1.0"
	defaultTimeout          = 10 * time.Second
	defaultRatePerSecond    = 5
	defaultBurst            = 10
	defaultMaxPages         = 10
	defaultBreakerThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	perPage                 = 100
)

// Credentials identify whose data to fetch and the token to fetch it with.
type Credentials struct {
	Username    string
	AccessToken string
}

// Source is the read side of the GitHub API the sync uses.
type Source interface {
	// Profile returns the authenticated user's profile.
	Profile(ctx context.Context, c Credentials) (gitstats.Profile, error)
	// Repositories returns the user's public repositories ordered by stars.
	Repositories(ctx context.Context, c Credentials) ([]gitstats.Repository, error)
	// CommitCount returns commits authored in the last year.
	CommitCount(ctx context.Context, c Credentials) (int, error)
	// MergedPRCount returns the user's merged pull requests.
	MergedPRCount(ctx context.Context, c Credentials) (int, error)
}

// Client implements Source over HTTP. A shared limiter and circuit
// breaker protect the upstream across every user's sync.
type Client struct {
	baseURL          string
	userAgent        string
	timeout          time.Duration
	transport        http.RoundTripper
	limiter          *rate.Limiter
	maxPages         int
	breakerThreshold uint32
	breaker          *gobreaker.CircuitBreaker
	now              func() time.Time
	logger           logger.Logger
}

var _ Source = (*Client)(nil)

// NewClient creates a GitHub API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:          defaultBaseURL,
		userAgent:        defaultUserAgent,
		timeout:          defaultTimeout,
		transport:        http.DefaultTransport,
		limiter:          rate.NewLimiter(defaultRatePerSecond, defaultBurst),
		maxPages:         defaultMaxPages,
		breakerThreshold: defaultBreakerThreshold,
		now:              time.Now,
		logger:           logger.Named("github"),
	}
	for _, opt := range opts {
		opt(c)
	}

	threshold := c.breakerThreshold
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "github",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

type apiUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

type apiRepo struct {
	Name            string `json:"name"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
	HTMLURL         string `json:"html_url"`
}

type searchResult struct {
	TotalCount int `json:"total_count"`
}

// Profile implements Source.
func (c *Client) Profile(ctx context.Context, cred Credentials) (gitstats.Profile, error) {
	var u apiUser
	if _, err := c.getJSON(ctx, cred, "profile", c.baseURL+"/user", &u); err != nil {
		return gitstats.Profile{}, err
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return gitstats.Profile{
		Login:       u.Login,
		Name:        name,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
	}, nil
}

// Repositories implements Source. Pages are followed through the Link
// header up to the configured page limit and the result is ordered by
// stars, descending. Repositories with equal stars keep API order.
func (c *Client) Repositories(ctx context.Context, cred Credentials) ([]gitstats.Repository, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("type", "owner")
	next := fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(cred.Username), q.Encode())

	var out []gitstats.Repository
	for page := 0; next != "" && page < c.maxPages; page++ {
		var repos []apiRepo
		header, err := c.getJSON(ctx, cred, "repos", next, &repos)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			out = append(out, gitstats.Repository{
				Name:     r.Name,
				Stars:    r.StargazersCount,
				Language: r.Language,
				URL:      r.HTMLURL,
			})
		}
		next = nextLink(header.Get("Link"))
	}

	// the endpoint cannot sort by stars; order the full set here
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stars > out[j].Stars })
	return out, nil
}

// CommitCount implements Source.
func (c *Client) CommitCount(ctx context.Context, cred Credentials) (int, error) {
	// last twelve months
	since := c.now().AddDate(-1, 0, 0).Format(time.DateOnly)
	return c.search(ctx, cred, "commits", "/search/commits",
		fmt.Sprintf("author:%s created:>%s", cred.Username, since))
}

// MergedPRCount implements Source.
func (c *Client) MergedPRCount(ctx context.Context, cred Credentials) (int, error) {
	return c.search(ctx, cred, "pull_requests", "/search/issues",
		fmt.Sprintf("author:%s is:pr is:merged", cred.Username))
}

func (c *Client) search(ctx context.Context, cred Credentials, kind, path, query string) (int, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", "1")

	var res searchResult
	if _, err := c.getJSON(ctx, cred, kind, c.baseURL+path+"?"+q.Encode(), &res); err != nil {
		return 0, err
	}
	return res.TotalCount, nil
}

// getJSON performs a rate-limited, breaker-guarded GET and decodes the
// body into v. It returns the response headers for pagination.
func (c *Client) getJSON(ctx context.Context, cred Credentials, kind, endpoint string, v any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("github %s: rate limiter: %w", kind, err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, cred, endpoint)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordGitHubRequest(kind, "breaker_open")
		return nil, fmt.Errorf("github %s: %w: %w", kind, ErrUnavailable, err)
	}
	if err != nil {
		metrics.RecordGitHubRequest(kind, "error")
		return nil, fmt.Errorf("github %s: %w", kind, err)
	}

	resp := result.(*response)
	metrics.RecordGitHubRequest(kind, strconv.Itoa(resp.status))
	c.logger.Debug(ctx, "github request",
		logger.String("kind", kind),
		logger.Int("status", resp.status),
		logger.Duration("took", time.Since(start)),
	)

	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("github %s: %w", kind, err)
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return nil, fmt.Errorf("github %s: decode response: %w", kind, err)
	}
	return resp.header, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do executes one request. Only transport failures and 5xx responses are
// returned as errors so client errors do not trip the breaker.
func (c *Client) do(ctx context.Context, cred Credentials, endpoint string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient(cred.AccessToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// httpClient attaches the user's bearer token through an oauth2 transport.
func (c *Client) httpClient(token string) *http.Client {
	rt := c.transport
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

func statusError(resp *response) error {
	switch {
	case resp.status >= 200 && resp.status < 300:
		return nil
	case resp.status == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.status == http.StatusNotFound:
		return ErrNotFound
	case resp.status == http.StatusTooManyRequests,
		resp.status == http.StatusForbidden && resp.header.Get("X-RateLimit-Remaining") == "0":
		return ErrRateLimited
	default:
		return fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.status)
	}
}
