// Package app assembles the service from configuration: storage, search
// providers, generation backends, the router and the background queue.
package app

import (
	"fmt"
	"strings"
)

// Config holds runtime configuration. Values are filled from flags, then the
// optional config file, then the environment; the assembled App treats it as
// immutable.
type Config struct {
	// ListenAddr is the HTTP bind address, e.g. ":8080".
	ListenAddr string
	// DBPath is the SQLite database file.
	DBPath string
	// RedisURL enables the background queue when set (redis://...).
	RedisURL string

	// Generation
	GenerationBackend string // "gemini" (default), "openai", or "mock"
	GeminiAPIKey      string
	DefaultModel      string
	FallbackModel     string
	LLMBaseURL        string // openai backend endpoint
	LLMAPIKey         string

	// Search
	SearchProvider string // "google_cse" (default) or "serpapi"
	GoogleAPIKey   string
	GoogleCSEID    string
	SerpAPIKey     string

	// Trust. Trusted-domain biasing is on by default with a built-in book
	// domain list; DisableTrustedDomains switches it off entirely.
	DisableTrustedDomains bool
	TrustedBookDomains    []string

	Verbose bool
}

// Validate rejects configurations the app cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.GenerationBackend) {
	case "", "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
	case "openai":
		if c.LLMBaseURL == "" && c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_BASE_URL or LLM_API_KEY is required for the openai backend")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown generation backend %q", c.GenerationBackend)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}
