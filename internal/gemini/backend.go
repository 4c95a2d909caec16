// Package gemini provides generation backends and a client that walks a
// model fallback chain. The REST backend speaks the Gemini generateContent
// API directly; an OpenAI-compatible backend covers self-hosted gateways.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/harutofu/shiori/internal/compose"
)

// Sentinel failures a backend can report. The fallback chain advances on any
// of these; other errors also advance but are recorded as-is.
var (
	// ErrNotFound means the requested model does not exist or is not served.
	ErrNotFound = errors.New("model not found")
	// ErrRateLimited means the backend refused the request with a quota error.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmptyResponse means the backend answered with no usable text.
	ErrEmptyResponse = errors.New("empty response")
)

// Backend generates text for one model. Implementations map transport-level
// failures onto the sentinel errors above where possible.
type Backend interface {
	Generate(ctx context.Context, model string, turns []compose.Turn) (string, error)
}

// APIError carries the upstream HTTP status alongside the mapped sentinel.
type APIError struct {
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation api: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("generation api: status %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }
