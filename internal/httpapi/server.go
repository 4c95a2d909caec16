// Package httpapi exposes the chat service over REST.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/compose"
	"github.com/harutofu/shiori/internal/export"
	"github.com/harutofu/shiori/internal/gemini"
	"github.com/harutofu/shiori/internal/markdown"
	"github.com/harutofu/shiori/internal/queue"
	"github.com/harutofu/shiori/internal/research"
	"github.com/harutofu/shiori/internal/route"
	"github.com/harutofu/shiori/internal/search"
	"github.com/harutofu/shiori/internal/store"
)

// Router answers one chat message. *route.Router satisfies it.
type Router interface {
	Route(ctx context.Context, req route.Request) (*route.Response, error)
}

// Researcher runs a deep-research job. *research.Engine satisfies it.
type Researcher interface {
	Run(ctx context.Context, topic, model string) (*research.Report, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	Store    *store.Store
	Router   Router
	Research Researcher
	Markdown *markdown.Renderer
	Dispatch *queue.Dispatcher
	// HistoryLimit caps the turns loaded per chat request. Zero means 50.
	HistoryLimit int
}

// Handler builds the gin engine with all routes attached.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/search_summarize", s.handleSearchSummarize)
		api.POST("/research", s.handleResearch)

		api.GET("/conversations", s.handleListConversations)
		api.POST("/conversations", s.handleCreateConversation)
		api.PATCH("/conversations/:id", s.handleUpdateConversation)
		api.DELETE("/conversations/:id", s.handleDeleteConversation)

		api.GET("/history/:id", s.handleHistory)
		api.GET("/export/:id", s.handleExport)
	}
	return r
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

type sourceInput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Chapter string `json:"chapter"`
}

type chatRequest struct {
	ConversationID string        `json:"conversation_id"`
	Message        string        `json:"message" binding:"required"`
	Model          string        `json:"model"`
	Sources        []sourceInput `json:"sources"`
}

type sourceOutput struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Origin  string `json:"origin"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, ok := s.resolveConversation(c, req.ConversationID)
	if !ok {
		return
	}
	history, err := s.loadHistory(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	resp, err := s.Router.Route(c.Request.Context(), route.Request{
		Message:     req.Message,
		History:     history,
		Model:       req.Model,
		UserSources: toUserSources(req.Sources),
	})
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	// Persist the turn pair, then kick the summarize job. Persistence
	// failure after a successful generation is reported, not swallowed.
	if _, err := s.Store.AppendMessage(c.Request.Context(), conv.ID, "user", req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist message"})
		return
	}
	if _, err := s.Store.AppendMessage(c.Request.Context(), conv.ID, "assistant", resp.Reply); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist message"})
		return
	}
	if s.Dispatch != nil {
		s.Dispatch.Dispatch(c.Request.Context(), queue.Job{ConversationID: conv.ID})
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conv.ID,
		"reply":           resp.Reply,
		"model_used":      resp.ModelUsed,
		"route":           resp.Route,
		"sources":         toSourceOutputs(resp.Sources),
	})
}

type searchSummarizeRequest struct {
	Query string `json:"query" binding:"required"`
	Model string `json:"model"`
}

// handleSearchSummarize runs the evidence pipeline without touching any
// conversation: one query in, one grounded answer out.
func (s *Server) handleSearchSummarize(c *gin.Context) {
	var req searchSummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := s.Router.Route(c.Request.Context(), route.Request{Message: req.Query, Model: req.Model})
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":      resp.Reply,
		"model_used": resp.ModelUsed,
		"route":      resp.Route,
		"sources":    toSourceOutputs(resp.Sources),
	})
}

type researchRequest struct {
	Topic string `json:"topic" binding:"required"`
	Model string `json:"model"`
}

func (s *Server) handleResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := s.Research.Run(c.Request.Context(), req.Topic, req.Model)
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topic":       report.Topic,
		"sub_queries": report.SubQueries,
		"report":      report.Markdown,
		"model_used":  report.ModelUsed,
		"sources":     toSourceOutputs(report.Sources),
	})
}

// resolveConversation loads the requested conversation or creates a fresh
// one when no id was sent.
func (s *Server) resolveConversation(c *gin.Context, id string) (*store.Conversation, bool) {
	ctx := c.Request.Context()
	if id == "" {
		conv, err := s.Store.CreateConversation(ctx, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
			return nil, false
		}
		return conv, true
	}
	conv, err := s.Store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return nil, false
	}
	return conv, true
}

func (s *Server) loadHistory(ctx context.Context, conversationID string) ([]compose.Turn, error) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	messages, err := s.Store.History(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	turns := make([]compose.Turn, 0, len(messages))
	for _, m := range messages {
		role := compose.RoleUser
		if m.Role == "assistant" {
			role = compose.RoleAssistant
		}
		turns = append(turns, compose.Turn{Role: role, Content: m.Content})
	}
	return turns, nil
}

func toUserSources(in []sourceInput) []search.Result {
	out := make([]search.Result, 0, len(in))
	for _, s := range in {
		if s.URL == "" {
			continue
		}
		out = append(out, search.Result{
			Title:       s.Title,
			URL:         s.URL,
			Snippet:     s.Snippet,
			ChapterHint: s.Chapter,
			Origin:      search.OriginUser,
		})
	}
	return out
}

func toSourceOutputs(in []search.Result) []sourceOutput {
	out := make([]sourceOutput, 0, len(in))
	for _, r := range in {
		out = append(out, sourceOutput{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
			Origin:  string(r.Origin),
		})
	}
	return out
}

// mapError classifies pipeline failures: bad upstreams are 502, everything
// else is a 500.
func mapError(err error) (int, string) {
	var searchErr *route.SearchError
	var provErr *search.Error
	var fbErr *gemini.FallbackError
	switch {
	case errors.As(err, &searchErr), errors.As(err, &provErr):
		return http.StatusBadGateway, "search backend failed: " + err.Error()
	case errors.As(err, &fbErr):
		return http.StatusBadGateway, "generation failed: " + err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// handleListConversations returns all threads, pinned first.
func (s *Server) handleListConversations(c *gin.Context) {
	list, err := s.Store.ListConversations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, conv := range list {
		out = append(out, conversationJSON(&conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := s.Store.CreateConversation(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, conversationJSON(conv))
}

type updateConversationRequest struct {
	Title  *string `json:"title"`
	Pinned *bool   `json:"pinned"`
}

func (s *Server) handleUpdateConversation(c *gin.Context) {
	var req updateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	ctx := c.Request.Context()
	if req.Title != nil {
		if err := s.Store.RenameConversation(ctx, id, *req.Title); err != nil {
			s.writeStoreError(c, err)
			return
		}
	}
	if req.Pinned != nil {
		if err := s.Store.SetPinned(ctx, id, *req.Pinned); err != nil {
			s.writeStoreError(c, err)
			return
		}
	}
	conv, err := s.Store.GetConversation(ctx, id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationJSON(conv))
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	if err := s.Store.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleHistory returns a conversation's transcript with sanitized HTML for
// each message.
func (s *Server) handleHistory(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if _, err := s.Store.GetConversation(ctx, id); err != nil {
		s.writeStoreError(c, err)
		return
	}
	messages, err := s.Store.History(ctx, id, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	out := make([]gin.H, 0, len(messages))
	for _, m := range messages {
		html, err := s.Markdown.Render(m.Content)
		if err != nil {
			log.Warn().Err(err).Int64("message_id", m.ID).Msg("markdown render failed")
			html = ""
		}
		out = append(out, gin.H{
			"id":           m.ID,
			"role":         m.Role,
			"content":      m.Content,
			"content_html": html,
			"created_at":   m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// handleExport streams a conversation as JSON, markdown or PDF.
func (s *Server) handleExport(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	conv, err := s.Store.GetConversation(ctx, id)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	messages, err := s.Store.History(ctx, id, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"conversation": conversationJSON(conv),
			"messages":     messages,
		})
	case "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8",
			[]byte(export.TranscriptMarkdown(conv, messages)))
	case "pdf":
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", `attachment; filename="conversation.pdf"`)
		if err := export.TranscriptPDF(c.Writer, conv, messages); err != nil {
			log.Warn().Err(err).Str("conversation_id", id).Msg("pdf export failed")
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format"})
	}
}

func (s *Server) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
}

func conversationJSON(conv *store.Conversation) gin.H {
	return gin.H{
		"id":         conv.ID,
		"title":      conv.Title,
		"summary":    conv.Summary,
		"pinned":     conv.Pinned,
		"created_at": conv.CreatedAt,
		"updated_at": conv.UpdatedAt,
	}
}
