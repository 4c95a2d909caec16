package search

import (
	"context"
	"fmt"
)

// Options narrows a single provider query.
type Options struct {
	// TopK caps the number of results returned. Zero means the provider default.
	TopK int
	// RecencyDays restricts results to the last N days. Zero disables the
	// restriction. Maps to Google CSE dateRestrict ("dN") and SerpAPI tbs.
	RecencyDays int
	// Geo is a country bias such as "jp". Optional.
	Geo string
	// Language is a language restrict such as "lang_ja". Optional.
	Language string
	// Site restricts the query to a single host. Optional.
	Site string
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
	Name() string
}

// Error is a typed search failure so callers can distinguish rate limiting
// from other provider errors. Rate-limited requests are never retried locally.
type Error struct {
	Provider    string
	Msg         string
	RateLimited bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search %s: %s: %v", e.Provider, e.Msg, e.Err)
	}
	return fmt.Sprintf("search %s: %s", e.Provider, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }
