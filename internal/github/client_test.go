package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzyjosh/brandai/internal/retry"
)

func testClient(baseURL string) *Client {
	// No internal retries so request counts are exact
	return NewClient(baseURL, retry.NewClient(retry.WithMaxRetries(0)), nil)
}

func TestRequest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `[{"id":1}]`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	params := url.Values{"sort": {"updated"}}

	body, err := c.Request(context.Background(), "gho_token", http.MethodGet, "/user/repos", params)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(body))
}

func TestRequest_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded for user"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Request(
		context.Background(), "gho_token", http.MethodGet, "/user/repos", nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRequest_ForbiddenWithoutRateLimitIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Resource not accessible by integration"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Request(
		context.Background(), "gho_token", http.MethodGet, "/user/repos", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestRequest_InvalidCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Request(
		context.Background(), "gho_token", http.MethodGet, "/user", nil)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRequest_UpstreamErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Request(
		context.Background(), "gho_token", http.MethodGet, "/user", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Request(
		context.Background(), "gho_token", http.MethodGet, "/user", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func pageOfItems(n, offset int) []map[string]int {
	items := make([]map[string]int, n)
	for i := range items {
		items[i] = map[string]int{"id": offset + i}
	}
	return items
}

func TestFetchAllPages_StopsOnShortPage(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.Equal(t, "100", r.URL.Query().Get("per_page"))

		switch page {
		case 1, 2:
			json.NewEncoder(w).Encode(pageOfItems(100, (page-1)*100))
		case 3:
			json.NewEncoder(w).Encode(pageOfItems(40, 200))
		default:
			t.Errorf("unexpected request for page %d", page)
		}
	}))
	defer srv.Close()

	items, err := testClient(srv.URL).FetchAllPages(
		context.Background(), "gho_token", "/repos/o/r/commits", nil, 10)
	require.NoError(t, err)

	// 100 + 100 + 40: the short third page terminates pagination even though
	// maxPages allows 10
	assert.Len(t, items, 240)
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchAllPages_MaxPagesIsHardCap(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(pageOfItems(100, 0))
	}))
	defer srv.Close()

	items, err := testClient(srv.URL).FetchAllPages(
		context.Background(), "gho_token", "/repos/o/r/commits", nil, 2)
	require.NoError(t, err)

	assert.Len(t, items, 200)
	assert.Equal(t, int32(2), requests.Load())
}

func TestFetchAllPages_EmptyFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	items, err := testClient(srv.URL).FetchAllPages(
		context.Background(), "gho_token", "/user/repos", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchAllPages_PropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchAllPages(
		context.Background(), "gho_token", "/user/repos", nil, 10)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestIssue_IsPullRequest(t *testing.T) {
	var issues []Issue
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"title":"real issue"},
		{"id":2,"title":"actually a pr","pull_request":{"url":"https://x"}}
	]`), &issues))

	assert.False(t, issues[0].IsPullRequest())
	assert.True(t, issues[1].IsPullRequest())
}
