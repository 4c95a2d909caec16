package research

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/harutofu/shiori/internal/search"
)

type stubSearch struct {
	mu      sync.Mutex
	queries []string
	answer  func(query string) ([]search.Result, error)
}

func (s *stubSearch) Search(_ context.Context, query string, _ search.Options) ([]search.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.answer(query)
}

type stubGen struct {
	decomposition string
	decompErr     error
	report        string
	prompts       []string
}

func (s *stubGen) Answer(_ context.Context, _, prompt string) (string, string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.prompts) == 1 && strings.Contains(prompt, "分解") {
		return s.decomposition, "model-d", s.decompErr
	}
	return s.report, "model-r", nil
}

func hit(q string) []search.Result {
	return []search.Result{{Title: "hit " + q, URL: "https://example.com/" + q, Snippet: "s"}}
}

func TestRun_DecomposesGathersAndSynthesizes(t *testing.T) {
	gen := &stubGen{
		decomposition: `["再エネ 定義", "再エネ 政策", "再エネ 市場"]`,
		report:        "# レポート\n...",
	}
	ss := &stubSearch{answer: func(q string) ([]search.Result, error) { return hit(q), nil }}
	e := &Engine{Search: ss, Gen: gen}

	rep, err := e.Run(context.Background(), "再生可能エネルギー", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.SubQueries) != 3 {
		t.Fatalf("sub-queries = %v", rep.SubQueries)
	}
	if len(rep.Sources) != 3 {
		t.Fatalf("expected one merged source per query, got %d", len(rep.Sources))
	}
	if rep.Markdown != "# レポート\n..." || rep.ModelUsed != "model-r" {
		t.Fatalf("report wrong: %+v", rep)
	}
	finalPrompt := gen.prompts[len(gen.prompts)-1]
	if !strings.Contains(finalPrompt, "hit 再エネ 定義") {
		t.Fatalf("evidence missing from report prompt:\n%s", finalPrompt)
	}
}

func TestRun_FencedDecompositionIsParsed(t *testing.T) {
	gen := &stubGen{
		decomposition: "```json\n[\"a1\", \"a2\", \"a3\", \"a4\"]\n```",
		report:        "r",
	}
	ss := &stubSearch{answer: func(q string) ([]search.Result, error) { return hit(q), nil }}
	e := &Engine{Search: ss, Gen: gen}

	rep, err := e.Run(context.Background(), "topic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a1", "a2", "a3", "a4"}
	if len(rep.SubQueries) != len(want) {
		t.Fatalf("sub-queries = %v", rep.SubQueries)
	}
}

func TestRun_BadDecompositionFallsBack(t *testing.T) {
	for _, decomp := range []string{
		"これは JSON ではありません",
		`["only", "two"]`,
		`[]`,
	} {
		gen := &stubGen{decomposition: decomp, report: "r"}
		ss := &stubSearch{answer: func(q string) ([]search.Result, error) { return hit(q), nil }}
		e := &Engine{Search: ss, Gen: gen}

		rep, err := e.Run(context.Background(), "トピック", "")
		if err != nil {
			t.Fatalf("decomposition %q: unexpected error: %v", decomp, err)
		}
		if len(rep.SubQueries) != 4 || rep.SubQueries[0] != "トピック" {
			t.Fatalf("decomposition %q: fallback not used: %v", decomp, rep.SubQueries)
		}
	}
}

func TestRun_TooManySubQueriesTrimmed(t *testing.T) {
	gen := &stubGen{
		decomposition: `["q1","q2","q3","q4","q5","q6","q7"]`,
		report:        "r",
	}
	ss := &stubSearch{answer: func(q string) ([]search.Result, error) { return hit(q), nil }}
	e := &Engine{Search: ss, Gen: gen}

	rep, err := e.Run(context.Background(), "topic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.SubQueries) != 5 {
		t.Fatalf("expected trim to 5, got %v", rep.SubQueries)
	}
}

func TestRun_PartialSearchFailureTolerated(t *testing.T) {
	gen := &stubGen{decomposition: `["ok1", "bad", "ok2"]`, report: "r"}
	ss := &stubSearch{answer: func(q string) ([]search.Result, error) {
		if q == "bad" {
			return nil, errors.New("boom")
		}
		return hit(q), nil
	}}
	e := &Engine{Search: ss, Gen: gen}

	rep, err := e.Run(context.Background(), "topic", "")
	if err != nil {
		t.Fatalf("one failed query must not abort: %v", err)
	}
	if len(rep.Sources) != 2 {
		t.Fatalf("expected sources from surviving queries, got %d", len(rep.Sources))
	}
}

func TestRun_AllSearchesFailedAborts(t *testing.T) {
	gen := &stubGen{decomposition: `["a", "b", "c"]`, report: "r"}
	ss := &stubSearch{answer: func(string) ([]search.Result, error) {
		return nil, errors.New("all down")
	}}
	e := &Engine{Search: ss, Gen: gen}

	if _, err := e.Run(context.Background(), "topic", ""); err == nil {
		t.Fatal("expected error when every sub-query fails")
	}
}

func TestRun_EmptyTopicRejected(t *testing.T) {
	e := &Engine{Search: &stubSearch{}, Gen: &stubGen{}}
	if _, err := e.Run(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for empty topic")
	}
}
