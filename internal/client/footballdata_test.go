package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bolao/api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Options{
		BaseURL:       srv.URL + "/v4",
		Token:         "secret",
		CompetitionID: "2013",
		Timeout:       2 * time.Second,
		MaxRetries:    retries,
		RetryDelay:    time.Millisecond,
	})
}

func TestFetchCompetition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/competitions/2013", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Auth-Token"))
		w.Write([]byte(`{"id":2013,"code":"BSA","currentSeason":{"startDate":"2025-03-29","currentMatchday":8}}`))
	}, 0)

	comp, err := c.FetchCompetition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, comp.CurrentMatchday())
}

func TestFetchMatchesByMatchday(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/competitions/2013/matches", r.URL.Path)
		assert.Equal(t, "8", r.URL.Query().Get("matchday"))
		w.Write([]byte(`{"matches":[{"id":1,"utcDate":"2025-05-10T19:00:00Z","status":"TIMED","matchday":8,
			"homeTeam":{"name":"A"},"awayTeam":{"name":"B"},"score":{"fullTime":{"home":null,"away":null}}}]}`))
	}, 0)

	resp, err := c.FetchMatchesByMatchday(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, 8, resp.Matches[0].MatchdayOrZero())
}

func TestFetchFinishedMatches_StatusFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, models.StatusFinished, r.URL.Query().Get("status"))
		w.Write([]byte(`{"matches":[]}`))
	}, 0)

	resp, err := c.FetchFinishedMatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
}

func TestNon2xxEmbedsStatusAndBody(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"restricted"}`))
	}, 3)

	_, err := c.FetchMatches(context.Background())
	require.Error(t, err)
	assert.Equal(t, `football-data API error: 403 - {"message":"restricted"}`, err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "Auth errors are not retried")
}

func TestRetryableStatusIsRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"matches":[]}`))
	}, 1)

	_, err := c.FetchMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNoRetriesByDefault(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 0)

	_, err := c.FetchMatches(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
