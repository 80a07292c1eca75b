// Package server exposes the chat and edit pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"redline/internal/apply"
	"redline/internal/deploy"
	"redline/internal/directive"
	"redline/internal/extract"
	"redline/internal/llm"
	"redline/internal/logging"
	"redline/internal/prompt"
	"redline/internal/session"
	"redline/internal/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr         string
	StaticDir    string
	ListCacheTTL time.Duration
}

// Server wires the pipeline together behind a gin router.
type Server struct {
	cfg      Config
	store    store.Store
	llm      llm.Client
	sessions *session.Store
	runner   *apply.Runner
	poller   *deploy.Poller
	router   *gin.Engine

	listMu        sync.Mutex
	listPaths     []string
	listFetchedAt time.Time
}

// New assembles a server. poller and sessions may be nil; the matching
// endpoints then report the feature as unavailable.
func New(cfg Config, st store.Store, client llm.Client, sessions *session.Store, poller *deploy.Poller) *Server {
	if cfg.ListCacheTTL <= 0 {
		cfg.ListCacheTTL = 30 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		llm:      client,
		sessions: sessions,
		runner:   apply.New(st),
		poller:   poller,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the http.Handler for the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/apply", s.handleApply)
		api.GET("/files", s.handleListFiles)
		api.GET("/files/*path", s.handleGetFile)
		api.GET("/deploy", s.handleDeployStatus)
		api.POST("/session/reset", s.handleSessionReset)
	}

	if s.cfg.StaticDir != "" {
		r.NoRoute(staticHandler(s.cfg.StaticDir))
	}
	return r
}

// requestID tags every request so log lines across the pipeline can be
// correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func staticHandler(dir string) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string                      `json:"session_id"`
	Reply     string                      `json:"reply"`
	Results   []directive.OperationResult `json:"results"`
	Rejected  []string                    `json:"rejected,omitempty"`
	Deploy    *deploy.Status              `json:"deploy,omitempty"`
}

// handleChat runs the full loop: prompt the model, extract directives
// from its reply, apply them, and record the turn.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = session.NewSessionID()
	}

	ctx := c.Request.Context()
	userPrompt, err := s.buildUserPrompt(ctx, req.SessionID, req.Message)
	if err != nil {
		logging.ServerError("chat context build failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	reply, err := s.llm.Complete(ctx, prompt.System, userPrompt)
	if err != nil {
		logging.ServerError("llm complete failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	results, rejected := s.runPipeline(ctx, reply)

	if s.sessions != nil {
		if err := s.sessions.Append(ctx, req.SessionID, session.RoleUser, req.Message); err != nil {
			logging.ServerError("session append failed: %v", err)
		}
		if err := s.sessions.Append(ctx, req.SessionID, session.RoleAssistant, reply); err != nil {
			logging.ServerError("session append failed: %v", err)
		}
	}
	if len(results) > 0 {
		s.invalidateListCache()
	}

	resp := chatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		Results:   results,
		Rejected:  rejected,
	}
	if s.poller != nil {
		st := s.poller.Status()
		resp.Deploy = &st
	}
	c.JSON(http.StatusOK, resp)
}

type applyRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleApply extracts and applies directives from caller-supplied
// model output, bypassing the LLM round trip.
func (s *Server) handleApply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, rejected := s.runPipeline(c.Request.Context(), req.Text)
	if len(results) > 0 {
		s.invalidateListCache()
	}
	c.JSON(http.StatusOK, gin.H{
		"results":  results,
		"rejected": rejected,
	})
}

// runPipeline is the extract -> validate -> apply chain shared by the
// chat and apply endpoints.
func (s *Server) runPipeline(ctx context.Context, text string) ([]directive.OperationResult, []string) {
	candidates := extract.Directives(text)
	batch, rejected := directive.ValidateAll(candidates)
	results := s.runner.Batch(ctx, batch)
	return results, rejected
}

func (s *Server) handleListFiles(c *gin.Context) {
	paths, err := s.listFiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": paths})
}

func (s *Server) handleGetFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	f, err := s.store.Get(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    f.Path,
		"content": f.Content,
		"sha":     f.SHA,
	})
}

func (s *Server) handleDeployStatus(c *gin.Context) {
	if s.poller == nil {
		c.JSON(http.StatusOK, gin.H{"state": "disabled"})
		return
	}
	c.JSON(http.StatusOK, s.poller.Status())
}

type resetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (s *Server) handleSessionReset(c *gin.Context) {
	if s.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sessions disabled"})
		return
	}
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.sessions.Reset(c.Request.Context(), req.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": req.SessionID})
}

// listFiles returns the repo listing, cached for ListCacheTTL.
func (s *Server) listFiles(ctx context.Context) ([]string, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	if s.listPaths != nil && time.Since(s.listFetchedAt) < s.cfg.ListCacheTTL {
		return s.listPaths, nil
	}

	paths, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	s.listPaths = paths
	s.listFetchedAt = time.Now()
	return paths, nil
}

func (s *Server) invalidateListCache() {
	s.listMu.Lock()
	s.listPaths = nil
	s.listMu.Unlock()
}

// buildUserPrompt assembles repo context, prior turns, and the new
// message. Files whose paths appear in the message are attached in
// full so the model sees current line numbers.
func (s *Server) buildUserPrompt(ctx context.Context, sessionID, message string) (string, error) {
	b := prompt.NewBuilder()

	paths, err := s.listFiles(ctx)
	if err != nil {
		return "", err
	}
	b.WithListing(paths)

	for _, p := range paths {
		if !strings.Contains(message, p) {
			continue
		}
		f, err := s.store.Get(ctx, p)
		if err != nil {
			logging.ServerError("context fetch %s failed: %v", p, err)
			continue
		}
		b.WithFile(p, f.Content)
	}

	request := message
	if s.sessions != nil {
		history, err := s.sessions.History(ctx, sessionID)
		if err != nil {
			logging.ServerError("history fetch failed: %v", err)
		} else if len(history) > 0 {
			var sb strings.Builder
			sb.WriteString("Conversation so far:\n")
			for _, m := range history {
				sb.WriteString(m.Role)
				sb.WriteString(": ")
				sb.WriteString(m.Content)
				sb.WriteString("\n")
			}
			sb.WriteString("\nuser: ")
			sb.WriteString(message)
			request = sb.String()
		}
	}

	return b.User(request), nil
}
