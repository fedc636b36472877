// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/coursedeck/internal/export"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/store"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the preview server.
	DefaultPort = 8790

	// DefaultRate is the per-client request rate allowed by the limiter.
	DefaultRate = 20

	// DefaultBurst is the per-client burst allowed by the limiter.
	DefaultBurst = 40

	// Version is the preview server version reported by /health.
	Version = "0.1.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats counts the requests served since start.
type Stats struct {
	StartTime     time.Time
	TotalRequests atomic.Int64
	PageViews     atomic.Int64
	APIRequests   atomic.Int64
}

// NewStats creates zeroed stats starting now.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Uptime returns the time since the server was created.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is a read-only HTTP view of the current document.
type Server struct {
	addr    string
	router  *http.ServeMux
	server  *http.Server
	store   *store.Store
	html    *export.HTMLExporter
	limiter *RateLimiter
	log     *zap.Logger
	stats   *Stats
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTheme selects the page theme ("dark" or "light").
func WithTheme(theme string) Option {
	return func(s *Server) {
		opts := export.DefaultOptions()
		opts.Theme = theme
		s.html = export.NewHTMLExporter(opts)
	}
}

// WithRateLimit overrides the per-client limiter.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = NewRateLimiter(r, burst)
	}
}

// NewServer creates a preview server for st on port. A zero port means
// DefaultPort. The server only listens on the loopback interface.
func NewServer(st *store.Store, port int, opts ...Option) *Server {
	if port == 0 {
		port = DefaultPort
	}
	s := &Server{
		addr:    net.JoinHostPort("127.0.0.1", fmt.Sprint(port)),
		router:  http.NewServeMux(),
		store:   st,
		html:    export.NewHTMLExporter(nil),
		limiter: NewRateLimiter(DefaultRate, DefaultBurst),
		log:     zap.NewNop(),
		stats:   NewStats(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("server")
	s.setupRoutes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// URL returns the address as an http URL.
func (s *Server) URL() string {
	return "http://" + s.addr + "/"
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handlePreview)
	s.router.HandleFunc("GET /api/document", s.handleDocument)
	s.router.HandleFunc("GET /api/rows", s.handleRows)
	s.router.HandleFunc("GET /api/parts/{id}", s.handlePart)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.log),
		RateLimitMiddleware(s.limiter, s.log),
		s.countRequests,
	)(s.router)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.stats.TotalRequests.Add(1)
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// HANDLERS
// ============================================================================

// handlePreview renders the current document as an HTML page. An empty
// document gets a placeholder page instead of an error.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.stats.PageViews.Add(1)
	doc := s.store.Get()

	page, err := s.html.Export(doc)
	if errors.Is(err, export.ErrEmptyDocument) {
		body := "<p class=\"empty\">No course loaded. Upload source files to get started.</p>\n"
		page = export.Page(doc.MainTopic, "", "", []byte(body))
		err = nil
	}
	if err != nil {
		s.log.Error("preview render failed", zap.Error(err))
		http.Error(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.stats.APIRequests.Add(1)
	s.writeJSON(w, http.StatusOK, s.store.Get())
}

// RowsResponse is the table projection served by /api/rows.
type RowsResponse struct {
	Title string       `json:"title"`
	Rows  []render.Row `json:"rows"`
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	s.stats.APIRequests.Add(1)
	doc := s.store.Get()
	rows := render.Rows(doc)
	if rows == nil {
		rows = []render.Row{}
	}
	s.writeJSON(w, http.StatusOK, RowsResponse{Title: doc.MainTopic, Rows: rows})
}

// PartResponse pairs a part with its current row position.
type PartResponse struct {
	Competency int        `json:"competency"`
	Index      int        `json:"index"`
	Part       model.Part `json:"part"`
}

func (s *Server) handlePart(w http.ResponseWriter, r *http.Request) {
	s.stats.APIRequests.Add(1)
	id := r.PathValue("id")
	part, ok := s.store.Part(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no subtopic with id %q", id))
		return
	}
	pos, _ := s.store.Locate(id)
	s.writeJSON(w, http.StatusOK, PartResponse{Competency: pos.Comp, Index: pos.Part, Part: part})
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Storage       string `json:"storage"`
	Uptime        string `json:"uptime"`
	TotalRequests int64  `json:"total_requests"`
	PageViews     int64  `json:"page_views"`
	APIRequests   int64  `json:"api_requests"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		Storage:       s.store.Backend(),
		Uptime:        s.stats.Uptime().Round(time.Second).String(),
		TotalRequests: s.stats.TotalRequests.Load(),
		PageViews:     s.stats.PageViews.Load(),
		APIRequests:   s.stats.APIRequests.Load(),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("server start", zap.String("addr", s.addr), zap.String("version", Version))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("server shutdown",
		zap.Int64("requests", s.stats.TotalRequests.Load()),
		zap.Duration("uptime", s.stats.Uptime()))
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
