package scorecard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpath/directory-cli/internal/resilience"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		RatePerSec: 1000, // keep tests fast
		Burst:      100,
	})
	c.retry = resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
	return c, srv
}

func envelopeJSON(results ...map[string]any) []byte {
	env := Envelope{Results: results}
	env.Metadata.Total = len(results)
	data, _ := json.Marshal(env)
	return data
}

func TestFetchInstitution_Found(t *testing.T) {
	var gotQuery atomic.Value
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write(envelopeJSON(map[string]any{"id": float64(100), "school.name": "Alpha College"})) //nolint:errcheck
	})

	result, err := c.FetchInstitution(context.Background(), "100")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Alpha College", result["school.name"])

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "100", q.Get("id"))
	assert.Equal(t, "1", q.Get("per_page"))
	assert.Equal(t, "test-key", q.Get("api_key"))
}

func TestFetchInstitution_UnknownID(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeJSON()) //nolint:errcheck
	})

	result, err := c.FetchInstitution(context.Background(), "999")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFetch_RetriesServerError(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(envelopeJSON(map[string]any{"id": float64(1)})) //nolint:errcheck
	})

	result, err := c.FetchInstitution(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetch_RateLimitExhaustion(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchInstitution(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
	assert.Equal(t, int64(3), calls.Load())

	var rle *resilience.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 3, rle.Attempts)
}

func TestFetch_ClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.FetchInstitution(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
	assert.NotContains(t, httpErr.URL, "test-key")
}

func TestFetchPage_UsesConfiguredPageSize(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Write(envelopeJSON()) //nolint:errcheck
	})

	env, err := c.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, env)
}

func TestForEachPage_WalksUntilTotal(t *testing.T) {
	pages := [][]map[string]any{
		{{"id": float64(1)}, {"id": float64(2)}},
		{{"id": float64(3)}},
	}
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		env := Envelope{Results: pages[page]}
		env.Metadata.Total = 3
		data, _ := json.Marshal(env)
		w.Write(data) //nolint:errcheck
	})

	var got int
	err := c.ForEachPage(context.Background(), func(env *Envelope) error {
		got += len(env.Results)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "https://example.test"})
	assert.Equal(t, 100, c.cfg.PerPage)
	assert.Equal(t, float64(2), c.cfg.RatePerSec)
	assert.Equal(t, 1, c.cfg.Burst)
}

func TestStripKey(t *testing.T) {
	out := stripKey("https://example.test/v1?api_key=secret&id=100")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "id=100")
}
