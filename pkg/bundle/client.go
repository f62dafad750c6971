// Package bundle downloads reference stub bundles over HTTP.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "stubcheck"
	maxBundleSize    = 512 * 1024 * 1024
)

// ErrNotFound is returned when no location serves the bundle.
var ErrNotFound = errors.New("bundle not found")

// Client downloads bundle archives, falling back to mirrors when the
// primary location does not have them.
type Client struct {
	httpClient *http.Client
	userAgent  string
	mirrors    []string
}

// Option configures a Client.
type Option func(*Client)

// WithMirrors adds base URLs tried in order after the primary URL. A
// mirror serves a bundle under the same file name.
func WithMirrors(mirrors ...string) Option {
	return func(c *Client) {
		for _, m := range mirrors {
			if m = strings.TrimRight(strings.TrimSpace(m), "/"); m != "" {
				c.mirrors = append(c.mirrors, m)
			}
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header, usually "stubcheck/<version>".
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsURL reports whether ref names a remote bundle.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Download fetches the bundle at rawURL and returns its bytes. A 404 or
// 410 answer, or a network error, moves on to the next mirror.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	candidates, err := c.candidates(rawURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, u := range candidates {
		data, tryNext, err := c.fetch(ctx, u)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !tryNext || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, rawURL, lastErr)
}

func (c *Client) candidates(rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bundle url %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return nil, fmt.Errorf("bundle url %q has no file name", rawURL)
	}

	out := []string{rawURL}
	for _, m := range c.mirrors {
		out = append(out, m+"/"+name)
	}
	return out, nil
}

// fetch performs a single GET. tryNext signals that the caller should
// attempt the next location.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", u, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, true, fmt.Errorf("server returned %d for %s", resp.StatusCode, u)
	default:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("reading response body from %s: %w", u, err)
	}
	if len(data) > maxBundleSize {
		return nil, false, fmt.Errorf("bundle %s exceeds maximum size of %d bytes", u, maxBundleSize)
	}
	return data, false, nil
}
