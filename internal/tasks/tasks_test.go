package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harutofu/shiori/internal/compose"
	"github.com/harutofu/shiori/internal/store"
)

type fakeStorage struct {
	messages []store.Message
	histErr  error

	savedID      string
	savedTitle   string
	savedSummary string
	saveErr      error
}

func (f *fakeStorage) History(context.Context, string, int) ([]store.Message, error) {
	return f.messages, f.histErr
}

func (f *fakeStorage) UpdateSummary(_ context.Context, id, title, summary string) error {
	f.savedID, f.savedTitle, f.savedSummary = id, title, summary
	return f.saveErr
}

type fakeGen struct {
	summary    string
	summaryErr error
	heading    string
	headingErr error
	analyzed   []compose.Turn
}

func (f *fakeGen) AnalyzeConversation(_ context.Context, turns []compose.Turn) (string, error) {
	f.analyzed = turns
	return f.summary, f.summaryErr
}

func (f *fakeGen) Answer(context.Context, string, string) (string, string, error) {
	return f.heading, "model", f.headingErr
}

func twoMessages() []store.Message {
	return []store.Message{
		{Role: "user", Content: "この本について教えて"},
		{Role: "assistant", Content: "その本は..."},
	}
}

func TestSummarizeConversation_SavesSummaryAndHeading(t *testing.T) {
	st := &fakeStorage{messages: twoMessages()}
	gen := &fakeGen{summary: "本についての会話の要約です。", heading: "「本についての会話」"}
	r := &Runner{Store: st, Gen: gen}

	if err := r.SummarizeConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.savedID != "c1" || st.savedSummary != "本についての会話の要約です。" {
		t.Fatalf("summary not saved: %+v", st)
	}
	if st.savedTitle != "本についての会話" {
		t.Fatalf("heading not cleaned: %q", st.savedTitle)
	}
	if len(gen.analyzed) != 2 || gen.analyzed[1].Role != compose.RoleAssistant {
		t.Fatalf("transcript roles wrong: %+v", gen.analyzed)
	}
}

func TestSummarizeConversation_HeadingFailureDegrades(t *testing.T) {
	st := &fakeStorage{messages: twoMessages()}
	gen := &fakeGen{summary: "長めの要約テキストがここに入ります", headingErr: errors.New("model down")}
	r := &Runner{Store: st, Gen: gen}

	if err := r.SummarizeConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("heading failure must not abort: %v", err)
	}
	if st.savedTitle == "" || !strings.HasPrefix(gen.summary, strings.TrimSuffix(st.savedTitle, "…")) {
		t.Fatalf("heading must derive from summary: %q", st.savedTitle)
	}
}

func TestSummarizeConversation_AnalysisFailureAborts(t *testing.T) {
	st := &fakeStorage{messages: twoMessages()}
	gen := &fakeGen{summaryErr: errors.New("all models failed")}
	r := &Runner{Store: st, Gen: gen}

	if err := r.SummarizeConversation(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}
	if st.savedID != "" {
		t.Fatal("nothing must be saved on analysis failure")
	}
}

func TestSummarizeConversation_EmptyTranscriptIsNoop(t *testing.T) {
	st := &fakeStorage{}
	gen := &fakeGen{}
	r := &Runner{Store: st, Gen: gen}
	if err := r.SummarizeConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.savedID != "" {
		t.Fatal("empty transcript must not write a summary")
	}
}
