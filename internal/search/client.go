package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config selects and credentials a web search provider.
type Config struct {
	// Provider is one of "google_cse", "serpapi", "google_books", "ndl".
	// Empty defaults to "google_cse".
	Provider     string
	GoogleAPIKey string
	GoogleCSEID  string
	SerpAPIKey   string
	HTTPClient   *http.Client
	// Timeout bounds each outbound request. Zero means 30s.
	Timeout time.Duration
	// Retries is the number of retries after the initial attempt for
	// transient failures. Negative means the default of 2.
	Retries int
}

// Client routes queries to the configured provider. Construction fails fast
// when the selected provider's credentials are missing.
type Client struct {
	provider Provider
}

// New builds a Client for the configured provider.
func New(cfg Config) (*Client, error) {
	p := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if p == "" {
		p = "google_cse"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 2
	}
	t := &transport{hc: hc, timeout: timeout, retries: retries}

	switch p {
	case "google_cse":
		if cfg.GoogleAPIKey == "" || cfg.GoogleCSEID == "" {
			return nil, &Error{Provider: p, Msg: "GOOGLE_API_KEY/GOOGLE_CSE_ID missing"}
		}
		return &Client{provider: &GoogleCSE{APIKey: cfg.GoogleAPIKey, CX: cfg.GoogleCSEID, transport: t}}, nil
	case "serpapi":
		if cfg.SerpAPIKey == "" {
			return nil, &Error{Provider: p, Msg: "SERPAPI_API_KEY missing"}
		}
		return &Client{provider: &SerpAPI{APIKey: cfg.SerpAPIKey, transport: t}}, nil
	case "google_books":
		if cfg.GoogleAPIKey == "" {
			return nil, &Error{Provider: p, Msg: "GOOGLE_API_KEY missing"}
		}
		return &Client{provider: &GoogleBooks{APIKey: cfg.GoogleAPIKey, transport: t}}, nil
	case "ndl":
		return &Client{provider: &NDL{transport: t}}, nil
	}
	return nil, &Error{Provider: p, Msg: "unknown provider"}
}

// Search runs one query against the configured provider.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &Error{Provider: c.provider.Name(), Msg: "query is required"}
	}
	return c.provider.Search(ctx, query, opts)
}

// Name reports the active provider.
func (c *Client) Name() string { return c.provider.Name() }

// transport issues GETs with a bounded timeout and capped exponential backoff
// on transient failures. 429 surfaces immediately as a rate-limit error.
type transport struct {
	hc      *http.Client
	timeout time.Duration
	retries int
}

var retryBase = 600 * time.Millisecond

func (t *transport) get(ctx context.Context, provider, rawURL string, params url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &Error{Provider: provider, Msg: "canceled", Err: ctx.Err()}
			case <-time.After(retryBase << uint(attempt-1)):
			}
		}
		body, retryable, err := t.tryOnce(ctx, provider, rawURL, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		log.Warn().Err(err).Str("provider", provider).Int("attempt", attempt+1).Msg("search request failed; retrying")
	}
	return nil, lastErr
}

func (t *transport) tryOnce(ctx context.Context, provider, rawURL string, params url.Values) (body []byte, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, &Error{Provider: provider, Msg: "new request", Err: err}
	}
	resp, err := t.hc.Do(req)
	if err != nil {
		// Network errors and deadline overruns are transient.
		return nil, true, &Error{Provider: provider, Msg: "network error", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, &Error{Provider: provider, Msg: "rate limited by provider (429)", RateLimited: true}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, true, &Error{Provider: provider, Msg: fmt.Sprintf("provider 5xx: %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, false, &Error{Provider: provider, Msg: fmt.Sprintf("http %d: %s", resp.StatusCode, snippet)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &Error{Provider: provider, Msg: "read body", Err: err}
	}
	return b, false, nil
}

func (t *transport) getJSON(ctx context.Context, provider, rawURL string, params url.Values, out any) error {
	body, err := t.get(ctx, provider, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Provider: provider, Msg: "decode response", Err: err}
	}
	return nil
}

// IsRateLimited reports whether err is a provider 429.
func IsRateLimited(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.RateLimited
}
