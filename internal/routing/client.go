// Package routing talks to OpenRouteService: it geocodes trip locations and
// measures the driving route between them.
//
// The Client is safe for concurrent use. Outbound calls are paced by a
// token-bucket limiter and transient failures are retried with exponential
// backoff.
package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/pkordes/eld-logbook/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-hgv"

	maxAttempts    = 4
	initialBackoff = 200 * time.Millisecond
)

// GeocodeCache is an optional persistent store for geocoding results.
type GeocodeCache interface {
	Get(ctx context.Context, query string) (domain.Coordinates, bool, error)
	Put(ctx context.Context, query string, c domain.Coordinates) error
}

// Client is an OpenRouteService API client.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	profile string
	limiter *rate.Limiter
	cache   GeocodeCache
	logger  *slog.Logger
	backoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another ORS deployment.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithProfile selects the ORS routing profile, e.g. "driving-car".
func WithProfile(p string) Option {
	return func(c *Client) { c.profile = p }
}

// WithHTTPClient replaces the default 10-second-timeout client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outbound requests per minute. Zero or less disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithGeocodeCache enables persistent geocode caching.
func WithGeocodeCache(gc GeocodeCache) Option {
	return func(c *Client) { c.cache = gc }
}

// WithLogger sets the logger used for per-call timing lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// withBackoff shortens the retry delay in tests.
func withBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient returns a Client for the given API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("routing.NewClient: api key is empty")
	}

	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		profile: DefaultProfile,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  slog.Default(),
		backoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// upstreamErr classifies a failed call. Client-side rejections of the input
// become validation errors; everything else is the provider's fault.
func upstreamErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var he *httpStatusError
	if errors.As(err, &he) && (he.Code == http.StatusBadRequest || he.Code == http.StatusNotFound) {
		return fmt.Errorf("%w: %s: %v", domain.ErrValidation, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, op, err)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff while respecting context cancellation.
// makeReq is called once per attempt because request bodies are single-use.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests, http.StatusInternalServerError,
				http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

// timed logs the duration and outcome of one client operation.
func (c *Client) timed(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		attrs := []any{
			"op", op,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(ctx),
		}
		if errp != nil && *errp != nil {
			c.logger.WarnContext(ctx, "routing call failed", append(attrs, "error", (*errp).Error())...)
			return
		}
		c.logger.DebugContext(ctx, "routing call", attrs...)
	}
}
