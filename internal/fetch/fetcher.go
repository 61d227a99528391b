// Package fetch is the outbound edge of the ingest path: a rate-limited,
// retrying HTTP client with per-provider circuit breakers, plus the fixture
// loader used when live mode is off.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	retryBase    = time.Second
	maxBodyBytes = 16 << 20
)

// DefaultWindows are the per-provider sliding windows. Providers absent from
// the table get a conservative 30 calls/min.
var DefaultWindows = map[string]Window{
	"mlb_statsapi":    {Calls: 50, Period: time.Minute},
	"baseball_savant": {Calls: 20, Period: time.Minute},
	"sportsdata_io":   {Calls: 60, Period: time.Minute},
	"espn":            {Calls: 60, Period: time.Minute},
	"cfbd":            {Calls: 30, Period: time.Minute},
	"nba_stats":       {Calls: 20, Period: time.Minute},
	"perfect_game":    {Calls: 15, Period: time.Minute},
	"on3":             {Calls: 15, Period: time.Minute},
	"opendorse":       {Calls: 15, Period: time.Minute},
	"thesportsdb":     {Calls: 30, Period: time.Minute},
}

var defaultWindow = Window{Calls: 30, Period: time.Minute}

// PayloadCache is the optional read-through cache in front of live calls.
// services.CacheService satisfies it; a nil cache disables caching.
type PayloadCache interface {
	GetPayload(ctx context.Context, key string) ([]byte, bool)
	SetPayload(ctx context.Context, key string, payload []byte)
}

// Client is the shared outbound HTTP client. One instance serves every league
// agent in a run; per-provider limiters and breakers are created lazily.
type Client struct {
	httpClient *http.Client
	clock      Clock
	logger     *logrus.Logger
	cache      PayloadCache

	// global courtesy limiter under the per-provider windows
	global *rate.Limiter

	// consecutive failures before a provider's breaker opens
	breakerThreshold uint32

	mu       sync.Mutex
	limiters map[string]*limiter
	breakers map[string]*gobreaker.CircuitBreaker
	windows  map[string]Window
}

// Option configures a Client.
type Option func(*Client)

// WithClock injects a clock, used by tests to avoid real sleeps.
func WithClock(c Clock) Option { return func(cl *Client) { cl.clock = c } }

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(h *http.Client) Option { return func(cl *Client) { cl.httpClient = h } }

// WithCache attaches a read-through payload cache.
func WithCache(c PayloadCache) Option { return func(cl *Client) { cl.cache = c } }

// WithWindow overrides the sliding window for one provider.
func WithWindow(provider string, w Window) Option {
	return func(cl *Client) { cl.windows[provider] = w }
}

// WithGlobalRate overrides the global requests-per-second ceiling.
func WithGlobalRate(rps float64, burst int) Option {
	return func(cl *Client) { cl.global = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithBreakerThreshold overrides how many consecutive failures open a
// provider's circuit breaker.
func WithBreakerThreshold(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.breakerThreshold = uint32(n)
		}
	}
}

// NewClient builds the outbound client. timeout bounds each HTTP attempt.
func NewClient(timeout time.Duration, logger *logrus.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient:       &http.Client{Timeout: timeout},
		clock:            realClock{},
		logger:           logger,
		global:           rate.NewLimiter(rate.Limit(10), 10),
		breakerThreshold: 5,
		limiters:         make(map[string]*limiter),
		breakers:         make(map[string]*gobreaker.CircuitBreaker),
		windows:          make(map[string]Window),
	}
	for k, w := range DefaultWindows {
		c.windows[k] = w
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) limiterFor(provider string) *limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[provider]; ok {
		return l
	}
	w, ok := c.windows[provider]
	if !ok {
		w = defaultWindow
	}
	l := newLimiter(w, c.clock)
	c.limiters[provider] = l
	return l
}

func (c *Client) breakerFor(provider string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[provider]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("Circuit breaker state change")
		},
	})
	c.breakers[provider] = cb
	return cb
}

// Fetch performs one rate-limited GET against a provider endpoint. It blocks
// in the provider's sliding window, retries 429s and transport errors with
// exponential backoff, and returns the payload plus the observed latency of
// the successful attempt.
func (c *Client) Fetch(ctx context.Context, provider, rawURL string, headers map[string]string, query url.Values) ([]byte, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransportError, Provider: provider, Err: err}
	}
	if query != nil {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	if c.cache != nil {
		if payload, ok := c.cache.GetPayload(ctx, target); ok {
			c.logger.WithField("provider", provider).Debug("Payload cache hit")
			return payload, 0, nil
		}
	}

	if err := c.limiterFor(provider).Acquire(ctx); err != nil {
		return nil, 0, &Error{Kind: KindTimedOut, Provider: provider, Err: err}
	}
	if err := c.global.Wait(ctx); err != nil {
		return nil, 0, &Error{Kind: KindTimedOut, Provider: provider, Err: err}
	}

	type result struct {
		payload []byte
		latency time.Duration
	}
	res, err := c.breakerFor(provider).Execute(func() (interface{}, error) {
		payload, latency, err := c.doWithRetry(ctx, provider, target, headers)
		if err != nil {
			return nil, err
		}
		return result{payload: payload, latency: latency}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, 0, &Error{Kind: KindTransportError, Provider: provider, Err: err}
		}
		return nil, 0, err
	}
	r := res.(result)

	if c.cache != nil {
		c.cache.SetPayload(ctx, target, r.payload)
	}
	return r.payload, r.latency, nil
}

// doWithRetry runs up to maxAttempts HTTP attempts. Retry only on 429 and
// transport errors; every other non-2xx fails immediately.
func (c *Client) doWithRetry(ctx context.Context, provider, target string, headers map[string]string) ([]byte, time.Duration, error) {
	var lastErr *Error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBase * time.Duration(1<<uint(attempt-1))
			c.logger.WithFields(logrus.Fields{
				"provider": provider,
				"attempt":  attempt + 1,
				"backoff":  backoff.String(),
			}).Debug("Retrying provider call")
			c.clock.Sleep(backoff)
			if err := ctx.Err(); err != nil {
				return nil, 0, &Error{Kind: KindTimedOut, Provider: provider, Err: err}
			}
		}

		payload, latency, ferr := c.do(ctx, provider, target, headers)
		if ferr == nil {
			return payload, latency, nil
		}
		lastErr = ferr
		if ferr.Kind != KindRateLimited && ferr.Kind != KindTransportError {
			return nil, 0, ferr
		}
	}
	return nil, 0, lastErr
}

func (c *Client) do(ctx context.Context, provider, target string, headers map[string]string) ([]byte, time.Duration, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransportError, Provider: provider, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "blaze-intelligence/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, 0, &Error{Kind: KindTimedOut, Provider: provider, Err: err}
		}
		return nil, 0, &Error{Kind: KindTransportError, Provider: provider, Err: err}
	}
	defer resp.Body.Close()
	latency := c.clock.Now().Sub(start)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, 0, &Error{Kind: KindRateLimited, Provider: provider, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, 0, &Error{Kind: KindProviderRejected, Provider: provider, Status: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, &Error{Kind: KindMalformedResponse, Provider: provider, Err: err}
	}
	if len(payload) == 0 {
		return nil, 0, &Error{Kind: KindMalformedResponse, Provider: provider, Err: fmt.Errorf("empty body")}
	}
	return payload, latency, nil
}
