package gemini

import (
	"context"

	"github.com/harutofu/shiori/internal/compose"
)

// Mock is a scriptable Backend for tests and offline development. Replies
// maps model name to a fixed reply; Fail maps model name to a fixed error.
// Calls records every request in order.
type Mock struct {
	Replies map[string]string
	Fail    map[string]error
	Calls   []MockCall

	// Default, when non-empty, answers any model missing from Replies.
	// It lets the mock stand in for a live backend during offline runs.
	Default string
}

// MockCall is one recorded Generate invocation.
type MockCall struct {
	Model string
	Turns []compose.Turn
}

func (m *Mock) Generate(_ context.Context, model string, turns []compose.Turn) (string, error) {
	m.Calls = append(m.Calls, MockCall{Model: model, Turns: turns})
	if err, ok := m.Fail[model]; ok {
		return "", err
	}
	if reply, ok := m.Replies[model]; ok {
		if reply == "" {
			return "", ErrEmptyResponse
		}
		return reply, nil
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return "", &APIError{Status: 404, Body: "unknown model " + model, Err: ErrNotFound}
}
