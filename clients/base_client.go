package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"

	defaultTimeout = 15 * time.Second
)

// BaseClient speaks JSON to the API under <base>/api. It keeps session and
// CSRF cookies in a jar and mirrors the CSRF cookie on unsafe requests.
type BaseClient struct {
	root   *url.URL
	api    *url.URL
	client *http.Client
	log    zerolog.Logger
}

// Option customises a BaseClient.
type Option func(*BaseClient)

// WithHTTPClient replaces the underlying http.Client. A nil Jar is filled in.
func WithHTTPClient(c *http.Client) Option {
	return func(b *BaseClient) { b.client = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *BaseClient) { b.client.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(b *BaseClient) { b.log = l }
}

// NewBaseClient parses baseURL (scheme and host, no /api suffix).
func NewBaseClient(baseURL string, opts ...Option) (*BaseClient, error) {
	root, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}

	b := &BaseClient{
		root:   root,
		api:    root.JoinPath("api"),
		client: &http.Client{Timeout: defaultTimeout},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		b.client.Jar = jar
	}
	return b, nil
}

// Jar exposes the cookie jar so other transports can reuse the session.
func (b *BaseClient) Jar() http.CookieJar { return b.client.Jar }

// Root returns the server root URL.
func (b *BaseClient) Root() *url.URL {
	u := *b.root
	return &u
}

func (b *BaseClient) cookie(name string) string {
	for _, c := range b.client.Jar.Cookies(b.api) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Do sends a JSON request to endpoint (relative to /api, may carry a query)
// and decodes the response into out when out is non-nil.
func (b *BaseClient) Do(ctx context.Context, method, endpoint string, body, out any) error {
	target, err := url.Parse(b.api.String() + endpoint)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("invalid endpoint %q", endpoint), Err: err}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return &APIError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if isUnsafe(method) {
		if token := b.cookie(csrfCookie); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("request failed")
		return &APIError{Message: fmt.Sprintf("%s %s: %v", method, endpoint, err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "read response body", Err: err}
	}
	b.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	var payload any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			payload = nil
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(payload, resp.StatusCode),
			Payload: payload,
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "decode response", Payload: payload, Err: err}
	}
	return nil
}
