package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConversationLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.CreateConversation(ctx, "最初の会話")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "最初の会話" || got.Pinned {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	if err := s.RenameConversation(ctx, c.ID, "改名後"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := s.SetPinned(ctx, c.ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	got, err = s.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Title != "改名後" || !got.Pinned {
		t.Fatalf("updates not applied: %+v", got)
	}

	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetConversation(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdatesOnMissingConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.RenameConversation(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rename: got %v", err)
	}
	if err := s.DeleteConversation(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: got %v", err)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	contents := []string{"one", "two", "three", "four"}
	for i, msg := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if _, err := s.AppendMessage(ctx, c.ID, role, msg); err != nil {
			t.Fatalf("append %q: %v", msg, err)
		}
	}

	all, err := s.History(ctx, c.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(all))
	}
	for i, msg := range contents {
		if all[i].Content != msg {
			t.Fatalf("history out of order: %+v", all)
		}
	}

	last, err := s.History(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(last) != 2 || last[0].Content != "three" || last[1].Content != "four" {
		t.Fatalf("limit must keep the most recent messages in order: %+v", last)
	}
}

func TestUpdateSummaryKeepsTitleWhenEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c, _ := s.CreateConversation(ctx, "既存タイトル")

	if err := s.UpdateSummary(ctx, c.ID, "", "要約のみ"); err != nil {
		t.Fatalf("summary only: %v", err)
	}
	got, _ := s.GetConversation(ctx, c.ID)
	if got.Title != "既存タイトル" || got.Summary != "要約のみ" {
		t.Fatalf("unexpected state: %+v", got)
	}

	if err := s.UpdateSummary(ctx, c.ID, "新タイトル", "新要約"); err != nil {
		t.Fatalf("summary and title: %v", err)
	}
	got, _ = s.GetConversation(ctx, c.ID)
	if got.Title != "新タイトル" || got.Summary != "新要約" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestListConversations_PinnedFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateConversation(ctx, "a")
	b, _ := s.CreateConversation(ctx, "b")
	if err := s.SetPinned(ctx, a.ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	// b was updated last, but a is pinned.
	if _, err := s.AppendMessage(ctx, b.ID, "user", "hi"); err != nil {
		t.Fatalf("append: %v", err)
	}

	list, err := s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID {
		t.Fatalf("pinned conversation must lead: %+v", list)
	}
}
