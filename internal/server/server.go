package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/portfolio-studio/internal/config"
	"github.com/jonathan/portfolio-studio/internal/contact"
	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/media"
	"github.com/jonathan/portfolio-studio/internal/preview"
	"github.com/jonathan/portfolio-studio/internal/server/middleware"
	"github.com/jonathan/portfolio-studio/internal/server/ratelimit"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/store"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	store          *store.Store
	storage        storage.Storage
	bus            events.Bus
	hub            *preview.Hub
	contact        *contact.Client
	rateLimiter    *ratelimit.Limiter
	sessions       *sessionRegistry
	authHandler    *AuthHandler
	logger         *zap.Logger
	maxUploadBytes int64
}

// Config holds server configuration
type Config struct {
	Port           int
	PasswordHash   string
	Password       *config.PasswordConfig
	JWT            *config.JWTConfig
	RateLimit      *ratelimit.Config
	ContactTimeout time.Duration
	MaxUploadBytes int64
}

// Deps are the components the server exposes over HTTP.
type Deps struct {
	Store   *store.Store
	Storage storage.Storage
	Bus     events.Bus
	Logger  *zap.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Storage == nil || deps.Bus == nil {
		return nil, fmt.Errorf("server requires a store, storage and event bus")
	}
	if cfg.Password == nil || cfg.JWT == nil {
		return nil, fmt.Errorf("server requires password and JWT configuration")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PasswordHash == "" {
		logger.Warn("no admin password hash configured; admin login is disabled")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = media.DefaultMaxBytes
	}

	s := &Server{
		store:          deps.Store,
		storage:        deps.Storage,
		bus:            deps.Bus,
		hub:            preview.NewHub(deps.Store, deps.Bus, logger.Named("preview")),
		contact:        contact.NewClient(cfg.ContactTimeout, logger.Named("contact")),
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit),
		sessions:       newSessionRegistry(),
		logger:         logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	jwtService := NewJWTService(cfg.JWT)
	s.authHandler = NewAuthHandler(cfg.Password, cfg.PasswordHash, jwtService, s.sessions, logger)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(jwtService),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(jwtService *JWTService) http.Handler {
	mux := http.NewServeMux()

	// Public site
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /site", s.handleSite)
	mux.HandleFunc("GET /site/palette", s.handleSitePalette)
	mux.HandleFunc("GET /site/events", s.handleSiteEvents)
	mux.HandleFunc("POST /contact", s.handleContact)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	// Admin editor
	admin := http.NewServeMux()
	admin.HandleFunc("POST /admin/logout", s.authHandler.Logout)
	admin.HandleFunc("GET /admin/document", s.handleGetDocument)
	admin.HandleFunc("PATCH /admin/document", s.handlePatchDocument)
	admin.HandleFunc("PUT /admin/document", s.handleReplaceDocument)
	admin.HandleFunc("GET /admin/counts", s.handleCounts)
	admin.HandleFunc("POST /admin/undo", s.handleUndo)
	admin.HandleFunc("GET /admin/validate", s.handleValidate)
	admin.HandleFunc("POST /admin/save", s.handleSave)
	admin.HandleFunc("GET /admin/draft", s.handleDraftStatus)
	admin.HandleFunc("POST /admin/draft", s.handleSaveDraft)
	admin.HandleFunc("DELETE /admin/draft", s.handleDiscardDraft)
	admin.HandleFunc("POST /admin/publish", s.handlePublish)
	admin.HandleFunc("POST /admin/reset", s.handleReset)
	admin.HandleFunc("POST /admin/import", s.handleImport)
	admin.HandleFunc("GET /admin/export", s.handleExport)
	admin.HandleFunc("GET /admin/export/publish", s.handleExportPublish)

	admin.HandleFunc("POST /admin/lists/{field}", s.handleAppendItem)
	admin.HandleFunc("PATCH /admin/lists/{field}/{index}", s.handlePatchItem)
	admin.HandleFunc("DELETE /admin/lists/{field}/{index}", s.handleRemoveItem)
	admin.HandleFunc("POST /admin/lists/{field}/{index}/move", s.handleMoveItem)
	admin.HandleFunc("PUT /admin/lists/{field}/{index}/hidden", s.handleSetItemHidden)

	admin.HandleFunc("GET /admin/sections", s.handleGetSections)
	admin.HandleFunc("PUT /admin/sections/order", s.handleSetSectionOrder)
	admin.HandleFunc("DELETE /admin/sections/order", s.handleResetSectionOrder)
	admin.HandleFunc("POST /admin/sections/move", s.handleMoveSection)
	admin.HandleFunc("PUT /admin/sections/{id}/hidden", s.handleSetSectionHidden)

	admin.HandleFunc("GET /admin/palettes", s.handleListPalettes)
	admin.HandleFunc("PUT /admin/palettes/selected", s.handleChoosePalette)
	admin.HandleFunc("POST /admin/palettes", s.handleSavePalette)
	admin.HandleFunc("DELETE /admin/palettes/{name}", s.handleDeletePalette)

	admin.HandleFunc("GET /admin/search", s.handleSearch)
	admin.HandleFunc("POST /admin/media", s.handleMedia)
	admin.HandleFunc("GET /admin/preview/stream", s.handlePreviewStream)
	admin.HandleFunc("POST /admin/preview/focus", s.handlePreviewFocus)

	auth := middleware.AuthMiddleware(jwtService.AsTokenValidator(), s.sessions)
	mux.Handle("/admin/", auth(s.withActivity(admin)))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// EndSessions signs out every admin. It is wired to the editor's idle timeout.
func (s *Server) EndSessions() {
	if n := s.sessions.EndAll(); n > 0 {
		s.logger.Info("admin sessions ended after inactivity", zap.Int("sessions", n))
	}
}

// Run serves until ctx is done, alongside the preview relay and, when the
// storage backend supports it, the watcher that broadcasts external changes.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(ctx)
	})

	if w, ok := s.storage.(storage.Watcher); ok {
		g.Go(func() error {
			return w.Watch(ctx, func(key string) { s.relayStorageChange(ctx, key) })
		})
	}

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return err
}

// relayStorageChange broadcasts published-document and palette writes made
// by another process, such as the CLI, to public-site subscribers.
func (s *Server) relayStorageChange(ctx context.Context, key string) {
	var e events.Event
	switch key {
	case storage.KeyPublished:
		data, err := json.Marshal(store.LoadPublished(ctx, s.storage, s.logger))
		if err != nil {
			return
		}
		e = events.New(events.KindPortfolioUpdated, data)
	case storage.KeyPalettes:
		data, ok, err := s.storage.Get(ctx, key)
		if err != nil || !ok {
			return
		}
		e = events.New(events.KindPalettesUpdated, data)
	default:
		return
	}
	e.Key = key
	e.Message = "external"
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to relay storage change", zap.String("key", key), zap.Error(err))
	}
}

// Stop releases background resources when Run was never called.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// withActivity restarts the editor's idle countdown on every admin request.
func (s *Server) withActivity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.store.Touch()
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Time("reset", info.ResetTime),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
