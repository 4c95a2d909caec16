package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/compose"
)

// Client runs generation requests through an ordered model fallback chain:
// the requested model first, then the configured primary, then the fallback.
// A model that errors or returns empty output hands over to the next one.
type Client struct {
	Backend Backend
	// Primary is the default model. Fallback is the last resort.
	Primary  string
	Fallback string
}

// FallbackError reports that every candidate model failed.
type FallbackError struct {
	Attempts []Attempt
}

// Attempt records one failed candidate.
type Attempt struct {
	Model string
	Err   error
}

func (e *FallbackError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Model, a.Err))
	}
	return "all models failed: " + strings.Join(parts, "; ")
}

// candidates builds the dedup'd chain for one request. Names are normalized
// first so an aliased request does not produce a duplicate attempt.
func (c *Client) candidates(requested string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range []string{NormalizeModel(requested), NormalizeModel(c.Primary), NormalizeModel(c.Fallback)} {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Generate walks the chain and returns the first non-empty output along with
// the model that produced it.
func (c *Client) Generate(ctx context.Context, requested string, turns []compose.Turn) (string, string, error) {
	chain := c.candidates(requested)
	if len(chain) == 0 {
		return "", "", fmt.Errorf("no model configured")
	}
	var attempts []Attempt
	for _, model := range chain {
		text, err := c.Backend.Generate(ctx, model, turns)
		if err == nil {
			return text, model, nil
		}
		attempts = append(attempts, Attempt{Model: model, Err: err})
		log.Warn().Err(err).Str("model", model).Msg("generation attempt failed; trying next model")
	}
	return "", "", &FallbackError{Attempts: attempts}
}

// Chat answers a message in the context of prior turns.
func (c *Client) Chat(ctx context.Context, requested string, history []compose.Turn, message string) (string, string, error) {
	turns := append(append([]compose.Turn{}, history...), compose.Turn{Role: compose.RoleUser, Content: message})
	return c.Generate(ctx, requested, turns)
}

// Answer runs a single-prompt request, used by the evidence-grounded paths.
func (c *Client) Answer(ctx context.Context, requested, prompt string) (string, string, error) {
	return c.Generate(ctx, requested, []compose.Turn{{Role: compose.RoleUser, Content: prompt}})
}

// AnalyzeConversation produces a running summary of a transcript.
func (c *Client) AnalyzeConversation(ctx context.Context, turns []compose.Turn) (string, error) {
	text, _, err := c.Answer(ctx, "", compose.AnalysisPrompt(turns))
	return text, err
}
