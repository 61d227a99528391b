package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances instantly on Sleep so backoff and window waits do not
// slow the suite down.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLimiterHoldsWindow(t *testing.T) {
	clock := newFakeClock()
	window := Window{Calls: 3, Period: time.Minute}
	l := newLimiter(window, clock)

	var sends []time.Time
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Acquire(context.Background()))
		sends = append(sends, clock.Now())
	}

	// No rolling one-minute span may contain more than three sends: the
	// fourth send after any send must be at least a full period later.
	for i := 0; i+window.Calls < len(sends); i++ {
		gap := sends[i+window.Calls].Sub(sends[i])
		assert.GreaterOrEqual(t, gap, window.Period,
			"sends %d and %d landed inside one window", i, i+window.Calls)
	}
}

func TestLimiterRespectsContext(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(Window{Calls: 1, Period: time.Minute}, clock)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Acquire(ctx))
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithClock(newFakeClock()),
		WithGlobalRate(1000, 1000),
		WithWindow("test_provider", Window{Calls: 100, Period: time.Minute}),
	}
	return NewClient(5*time.Second, testLogger(), append(base, opts...)...)
}

func TestFetchRetriesRateLimitedThenSucceeds(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t)
	payload, _, err := client.Fetch(context.Background(), "test_provider", srv.URL, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
	assert.Equal(t, 3, hits)
}

func TestFetchRateLimitedAfterExhaustion(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t)
	_, _, err := client.Fetch(context.Background(), "test_provider", srv.URL, nil, nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, kind)
	assert.Equal(t, 3, hits)
}

func TestFetchProviderRejectedFailsImmediately(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t)
	_, _, err := client.Fetch(context.Background(), "test_provider", srv.URL, nil, nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindProviderRejected, kind)
	assert.Equal(t, 1, hits, "non-429 rejections must not be retried")

	fe := err.(*Error)
	assert.Equal(t, http.StatusForbidden, fe.Status)
}

func TestFetchAppendsQueryAndHeaders(t *testing.T) {
	var gotKey, gotSeason string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotSeason = r.URL.Query().Get("season")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t)
	_, _, err := client.Fetch(context.Background(), "test_provider", srv.URL,
		map[string]string{"X-Api-Key": "secret"},
		map[string][]string{"season": {"2025"}})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "2025", gotSeason)
}

func TestBreakerOpensAtConfiguredThreshold(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, WithBreakerThreshold(2))

	// Two rejections open the breaker.
	for i := 0; i < 2; i++ {
		_, _, err := client.Fetch(context.Background(), "test_provider", srv.URL, nil, nil)
		require.Error(t, err)
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindProviderRejected, kind)
	}
	require.Equal(t, 2, hits)

	// The third call is refused without reaching the provider.
	_, _, err := client.Fetch(context.Background(), "test_provider", srv.URL, nil, nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransportError, kind)
	assert.Equal(t, 2, hits, "open breaker must short-circuit the call")
}

func TestFixturesLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mlb.json"), []byte(`{"players":[]}`), 0o644))

	fx := NewFixtures(dir, testLogger())

	payload, ok := fx.Load("MLB")
	require.True(t, ok)
	assert.JSONEq(t, `{"players":[]}`, string(payload))

	_, ok = fx.Load("nhl")
	assert.False(t, ok, "missing fixture must not be an error")
}
