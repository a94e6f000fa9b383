// Package osm provides the HTTP client for the public OpenStreetMap services
// used by the restaurant lookups: Nominatim for geocoding and the Overpass
// API for point-of-interest queries.
package osm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// API endpoints
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	OverpassBaseURL  = "https://overpass-api.de/api/interpreter"

	// DefaultUserAgent identifies this client to the upstream services,
	// as required by Nominatim's usage policy.
	DefaultUserAgent = "restaurant-finder-mcp/0.1.0"

	DefaultNominatimTimeout = 10 * time.Second
	DefaultOverpassTimeout  = 40 * time.Second

	// maxBodySize bounds how much of an upstream response is read.
	maxBodySize = 16 << 20
)

// Options configures a Client. Zero values fall back to the public
// endpoints and default timeouts.
type Options struct {
	NominatimURL     string
	OverpassURL      string
	UserAgent        string
	Email            string // sent to Nominatim as the contact address, if set
	NominatimTimeout time.Duration
	OverpassTimeout  time.Duration
	Limits           map[string]ServiceLimit // nil means DefaultLimits
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// Client talks to Nominatim and Overpass. It is safe for concurrent use.
type Client struct {
	httpClient       *http.Client
	limiter          *RateLimiter
	nominatimURL     string
	overpassURL      string
	userAgent        string
	email            string
	nominatimTimeout time.Duration
	overpassTimeout  time.Duration
	logger           *slog.Logger
}

// NewClient creates a new OSM API client
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "osm")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	limits := opts.Limits
	if limits == nil {
		limits = DefaultLimits()
	}

	c := &Client{
		httpClient:       httpClient,
		limiter:          NewRateLimiter(limits, logger),
		nominatimURL:     strings.TrimRight(orDefault(opts.NominatimURL, NominatimBaseURL), "/"),
		overpassURL:      orDefault(opts.OverpassURL, OverpassBaseURL),
		userAgent:        orDefault(opts.UserAgent, DefaultUserAgent),
		email:            opts.Email,
		nominatimTimeout: opts.NominatimTimeout,
		overpassTimeout:  opts.OverpassTimeout,
		logger:           logger,
	}
	if c.nominatimTimeout <= 0 {
		c.nominatimTimeout = DefaultNominatimTimeout
	}
	if c.overpassTimeout <= 0 {
		c.overpassTimeout = DefaultOverpassTimeout
	}
	return c
}

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// serviceLabel is the display name used in errors.
func serviceLabel(service string) string {
	switch service {
	case ServiceNominatim:
		return "Nominatim"
	case ServiceOverpass:
		return "Overpass"
	default:
		return service
	}
}

// do performs one rate-limited request against service and returns the
// response body of a 2xx answer. Every other outcome is an *APIError.
func (c *Client) do(ctx context.Context, service, method, url string, body io.Reader, contentType string) ([]byte, error) {
	timeout := c.nominatimTimeout
	if service == ServiceOverpass {
		timeout = c.overpassTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	label := serviceLabel(service)
	logger := c.logger.With("service", service)

	if err := c.limiter.Wait(ctx, service); err != nil {
		apiErr := NewAPIError(label, 0, "rate limit wait aborted", GuidanceGeneral)
		apiErr.Err = err
		return nil, apiErr
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("osm: create %s request: %w", service, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("request failed", "error", err, "elapsed", time.Since(start))
		guidance := GuidanceNetworkError
		if errors.Is(err, context.DeadlineExceeded) {
			guidance = timeoutGuidance(service)
		}
		apiErr := NewAPIError(label, 0, "failed to communicate with service", guidance)
		apiErr.Err = err
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		logger.Error("failed to read response", "error", err)
		apiErr := NewAPIError(label, resp.StatusCode, "failed to read response", timeoutGuidance(service))
		apiErr.Err = err
		return nil, apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("service returned error", "status", resp.StatusCode)
		guidance := ""
		if resp.StatusCode == http.StatusTooManyRequests {
			guidance = rateLimitGuidance(service)
		}
		return nil, NewAPIError(label, resp.StatusCode, http.StatusText(resp.StatusCode), guidance)
	}

	logger.Debug("request completed", "status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

func timeoutGuidance(service string) string {
	if service == ServiceOverpass {
		return GuidanceOverpassTimeout
	}
	return GuidanceNominatimTimeout
}

func rateLimitGuidance(service string) string {
	if service == ServiceOverpass {
		return GuidanceOverpassRateLimit
	}
	return GuidanceNominatimRateLimit
}
