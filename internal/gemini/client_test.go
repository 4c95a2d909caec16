package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/harutofu/shiori/internal/compose"
)

func userTurn(s string) []compose.Turn {
	return []compose.Turn{{Role: compose.RoleUser, Content: s}}
}

func TestGenerate_RequestedModelSucceeds(t *testing.T) {
	mock := &Mock{Replies: map[string]string{"gemini-2.5-flash": "hello"}}
	c := &Client{Backend: mock, Primary: "gemini-2.5-pro", Fallback: "gemini-2.5-flash-lite"}

	text, model, err := c.Generate(context.Background(), "gemini-2.5-flash", userTurn("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" || model != "gemini-2.5-flash" {
		t.Fatalf("got (%q, %q)", text, model)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("success must not try further models, got %d calls", len(mock.Calls))
	}
}

func TestGenerate_FallsBackAndReportsModelUsed(t *testing.T) {
	mock := &Mock{
		Fail:    map[string]error{"model-a": &APIError{Status: 404, Err: ErrNotFound}},
		Replies: map[string]string{"model-b": "ok"},
	}
	c := &Client{Backend: mock, Primary: "model-a", Fallback: "model-b"}

	text, model, err := c.Generate(context.Background(), "", userTurn("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" || model != "model-b" {
		t.Fatalf("got (%q, %q), want (ok, model-b)", text, model)
	}
}

func TestGenerate_EmptyOutputCountsAsFailure(t *testing.T) {
	mock := &Mock{Replies: map[string]string{"model-a": "", "model-b": "recovered"}}
	c := &Client{Backend: mock, Primary: "model-a", Fallback: "model-b"}

	text, model, err := c.Generate(context.Background(), "", userTurn("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" || model != "model-b" {
		t.Fatalf("got (%q, %q)", text, model)
	}
}

func TestGenerate_ExhaustionReturnsSingleFallbackError(t *testing.T) {
	mock := &Mock{Fail: map[string]error{
		"model-a": &APIError{Status: 429, Err: ErrRateLimited},
		"model-b": ErrEmptyResponse,
	}}
	c := &Client{Backend: mock, Primary: "model-a", Fallback: "model-b"}

	_, _, err := c.Generate(context.Background(), "", userTurn("hi"))
	var fe *FallbackError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FallbackError, got %v", err)
	}
	if len(fe.Attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(fe.Attempts))
	}
	if !errors.Is(fe.Attempts[0].Err, ErrRateLimited) {
		t.Fatalf("attempt 0 must keep its cause: %v", fe.Attempts[0].Err)
	}
}

func TestCandidates_DedupAfterNormalization(t *testing.T) {
	c := &Client{Primary: "gemini-2.5-flash", Fallback: "gemini-2.5-flash-lite"}
	// The retired alias of the primary must not produce a duplicate attempt.
	chain := c.candidates("gemini-1.5-flash")
	want := []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("chain = %v, want %v", chain, want)
		}
	}
}

func TestChat_AppendsMessageToHistory(t *testing.T) {
	mock := &Mock{Replies: map[string]string{"m": "reply"}}
	c := &Client{Backend: mock, Primary: "m"}

	history := []compose.Turn{
		{Role: compose.RoleUser, Content: "first"},
		{Role: compose.RoleAssistant, Content: "second"},
	}
	if _, _, err := c.Chat(context.Background(), "", history, "third"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turns := mock.Calls[0].Turns
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	last := turns[2]
	if last.Role != compose.RoleUser || last.Content != "third" {
		t.Fatalf("last turn = %+v", last)
	}
}

func TestNormalizeModel(t *testing.T) {
	cases := map[string]string{
		"gemini-1.5-flash":        "gemini-2.5-flash",
		"models/gemini-1.5-pro":   "gemini-2.5-pro",
		"models/gemini-2.5-flash": "gemini-2.5-flash",
		"gemini-2.5-pro":          "gemini-2.5-pro",
		"  gemini-1.5-flash-8b  ": "gemini-2.5-flash-lite",
		"some-future-model":       "some-future-model",
		"":                        "",
	}
	for in, want := range cases {
		if got := NormalizeModel(in); got != want {
			t.Errorf("NormalizeModel(%q) = %q, want %q", in, got, want)
		}
	}
}
