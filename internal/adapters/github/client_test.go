package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/meritrack/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWith(os.Stderr, "text"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var creds = Credentials{Username: "octo", AccessToken: "tok-123"}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	base := []Option{
		WithBaseURL(srv.URL),
		WithRateLimit(1000, 1000),
		WithLogger(logger.Nop()),
	}
	return NewClient(append(base, opts...)...)
}

func TestProfile(t *testing.T) {
	var gotAuth, gotAccept string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		require.Equal(t, "/user", r.URL.Path)
		fmt.Fprint(w, `{"login":"octo","name":"","bio":"hi","avatar_url":"https://a/x.png","public_repos":7,"followers":3,"following":1}`)
	}))

	p, err := c.Profile(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "octo", p.Login)
	assert.Equal(t, "octo", p.Name, "blank name falls back to login")
	assert.Equal(t, 7, p.PublicRepos)
	assert.Equal(t, 3, p.Followers)
}

func TestProfileUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Profile(context.Background(), creds)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRepositoriesPaginates(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name":"c","stargazers_count":1,"language":"Rust","html_url":"https://github.com/octo/c"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/octo/repos?per_page=100&type=owner&page=2>; rel="next", <%s/users/octo/repos?page=2>; rel="last"`, srvURL, srvURL))
		fmt.Fprint(w, `[{"name":"a","stargazers_count":40,"language":"Go"},{"name":"b","stargazers_count":9,"language":null}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000, 1000), WithLogger(logger.Nop()))
	repos, err := c.Repositories(context.Background(), creds)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "a", repos[0].Name)
	assert.Equal(t, 40, repos[0].Stars)
	assert.Equal(t, "", repos[1].Language)
	assert.Equal(t, "https://github.com/octo/c", repos[2].URL)
}

func TestRepositoriesOrderedByStars(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name":"delta","stargazers_count":120},{"name":"epsilon","stargazers_count":50}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/octo/repos?page=2>; rel="next"`, srvURL))
		fmt.Fprint(w, `[{"name":"alpha","stargazers_count":1},{"name":"beta","stargazers_count":500},{"name":"gamma","stargazers_count":50}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000, 1000), WithLogger(logger.Nop()))
	repos, err := c.Repositories(context.Background(), creds)
	require.NoError(t, err)

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"beta", "delta", "gamma", "epsilon", "alpha"}, names,
		"ordered by stars across pages, ties in API order")
}

func TestRepositoriesStopsAtMaxPages(t *testing.T) {
	var calls atomic.Int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/octo/repos?page=next>; rel="next"`, srvURL))
		fmt.Fprint(w, `[{"name":"loop","stargazers_count":1}]`)
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000, 1000), WithMaxPages(3), WithLogger(logger.Nop()))
	repos, err := c.Repositories(context.Background(), creds)
	require.NoError(t, err)
	assert.Len(t, repos, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchCounts(t *testing.T) {
	fixed := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	var commitQuery, prQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/commits", func(w http.ResponseWriter, r *http.Request) {
		commitQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"total_count":123,"items":[]}`)
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		prQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"total_count":8,"items":[]}`)
	})
	c := newTestClient(t, mux, WithClock(func() time.Time { return fixed }))

	commits, err := c.CommitCount(context.Background(), creds)
	require.NoError(t, err)
	prs, err := c.MergedPRCount(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, 123, commits)
	assert.Equal(t, 8, prs)
	assert.Equal(t, "author:octo created:>2025-10-15", commitQuery)
	assert.Equal(t, "author:octo is:pr is:merged", prQuery)
}

func TestRateLimitedResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.CommitCount(context.Background(), creds)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), WithBreakerThreshold(2))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.MergedPRCount(ctx, creds)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	_, err := c.MergedPRCount(ctx, creds)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits the request")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), WithBreakerThreshold(1))

	for i := 0; i < 3; i++ {
		_, err := c.Profile(context.Background(), creds)
		assert.True(t, errors.Is(err, ErrNotFound))
	}
}

func TestContextCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}), WithRateLimit(0.001, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Profile(ctx, creds)
	assert.Error(t, err)
}

func TestNextLink(t *testing.T) {
	cases := map[string]string{
		"": "",
		`<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`: "https://api.github.com/x?page=2",
		`<https://api.github.com/x?page=1>; rel="prev"`:                                                "",
		`<https://api.github.com/x?page=3>; rel="next"`:                                                "https://api.github.com/x?page=3",
	}
	for header, want := range cases {
		assert.Equal(t, want, nextLink(header), header)
	}
}
