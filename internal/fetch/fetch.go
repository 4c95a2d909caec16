// Package fetch retrieves HTML pages for evidence enrichment. It bounds each
// request with a timeout, caps body size and redirect hops, retries transient
// failures, and rejects non-HTML payloads before they reach extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnsupportedContentType marks responses that are not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// ErrUnsupportedScheme marks URLs outside http/https.
var ErrUnsupportedScheme = errors.New("unsupported url scheme")

// Client wraps http.Client for page fetching.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request. Zero means 10s.
	PerRequestTimeout time.Duration
	// MaxBodyBytes caps the response body read. Zero means 2 MiB.
	MaxBodyBytes int64
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests per client. Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

// Get issues a GET and returns the HTML body and content type. Transient
// failures (5xx, deadline) are retried up to MaxAttempts with linear backoff.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(time.Duration(i) * 200 * time.Millisecond):
			}
		}
		body, ct, err := c.tryOnce(ctx, rawURL)
		if err == nil {
			return body, ct, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, "", err
		}
	}
	return nil, "", lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) ([]byte, string, error) {
	c.acquire()
	defer c.release()

	timeout := c.PerRequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, "", fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	maxBytes := c.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, contentType, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach the redirect policy without mutating the caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirect
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirect}
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return ErrUnsupportedScheme
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
