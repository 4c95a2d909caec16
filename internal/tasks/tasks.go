// Package tasks holds the background jobs dispatched after chat turns.
package tasks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/compose"
	"github.com/harutofu/shiori/internal/queue"
	"github.com/harutofu/shiori/internal/store"
	"github.com/harutofu/shiori/internal/title"
)

// Storage is the slice of store.Store the runner needs.
type Storage interface {
	History(ctx context.Context, conversationID string, limit int) ([]store.Message, error)
	UpdateSummary(ctx context.Context, id, title, summary string) error
}

// Generator produces summaries and headings.
type Generator interface {
	AnalyzeConversation(ctx context.Context, turns []compose.Turn) (string, error)
	Answer(ctx context.Context, requested, prompt string) (string, string, error)
}

// Runner executes summarize jobs against the store.
type Runner struct {
	Store Storage
	Gen   Generator
	// HistoryLimit caps the transcript fed to analysis. Zero means 100.
	HistoryLimit int
}

// Handle adapts SummarizeConversation to the queue's handler signature.
func (r *Runner) Handle(ctx context.Context, job queue.Job) error {
	return r.SummarizeConversation(ctx, job.ConversationID)
}

// SummarizeConversation regenerates a conversation's summary and heading
// from its recent transcript. A heading-generation failure degrades to a
// heading cut from the summary itself; only analysis failure aborts the job.
func (r *Runner) SummarizeConversation(ctx context.Context, conversationID string) error {
	limit := r.HistoryLimit
	if limit <= 0 {
		limit = 100
	}
	messages, err := r.Store.History(ctx, conversationID, limit)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	turns := make([]compose.Turn, 0, len(messages))
	for _, m := range messages {
		role := compose.RoleUser
		if m.Role == "assistant" {
			role = compose.RoleAssistant
		}
		turns = append(turns, compose.Turn{Role: role, Content: m.Content})
	}

	summary, err := r.Gen.AnalyzeConversation(ctx, turns)
	if err != nil {
		return fmt.Errorf("analyze conversation: %w", err)
	}

	heading := ""
	if raw, _, err := r.Gen.Answer(ctx, "", compose.TitlePrompt(summary)); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("heading generation failed; deriving from summary")
		heading = title.CleanAndShorten(summary, 0)
	} else {
		heading = title.CleanAndShorten(raw, 0)
	}

	if err := r.Store.UpdateSummary(ctx, conversationID, heading, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	log.Debug().Str("conversation_id", conversationID).Str("title", heading).Msg("conversation summarized")
	return nil
}
