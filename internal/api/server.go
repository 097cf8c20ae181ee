package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/config"
	"github.com/terra-clan/growth-tracker/internal/identity"
	"github.com/terra-clan/growth-tracker/internal/models"
	"github.com/terra-clan/growth-tracker/internal/notify"
	"github.com/terra-clan/growth-tracker/internal/prompts"
	"github.com/terra-clan/growth-tracker/internal/session"
	"github.com/terra-clan/growth-tracker/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	repo     storage.Repository
	sessions session.Store
	registry *assessment.Registry
	hub      *notify.Hub
	notifier notify.Notifier
	prompts  *prompts.Catalog
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	repo storage.Repository,
	sessions session.Store,
	registry *assessment.Registry,
	hub *notify.Hub,
	catalog *prompts.Catalog,
) *Server {
	s := &Server{
		config:   cfg,
		repo:     repo,
		sessions: sessions,
		registry: registry,
		hub:      hub,
		notifier: notify.Multi{notify.LogNotifier{}, hub},
		prompts:  catalog,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-Token"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		// Everything below requires a live session
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)

			r.Post("/auth/logout", s.handleLogout)

			r.Route("/assessments", func(r chi.Router) {
				r.Get("/", s.handleListAssessments)
				r.Get("/export", s.handleExport)
				r.Delete("/{id}", s.handleDeleteAssessment)
			})

			r.Route("/draft", func(r chi.Router) {
				r.Post("/", s.handleStartDraft)
				r.Get("/", s.handleGetDraft)
				r.Put("/score", s.handleUpdateScore)
				r.Put("/note", s.handleUpdateNote)
				r.Post("/save", s.handleSaveDraft)
				r.Delete("/", s.handleCancelDraft)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/summary", s.handleSummary)
				r.Get("/insights", s.handleInsights)
				r.Get("/chart", s.handleChart)
			})

			r.Route("/areas", func(r chi.Router) {
				r.Get("/", s.handleListAreas)
				r.Get("/{id}/questions", s.handleAreaQuestions)
			})

			r.Get("/events", s.handleEvents)
		})
	})

	s.router = r
}

// entryForUser returns the user's live tracker entry, rebuilding it
// when a valid session outlives the in-memory registry (e.g. after a
// restart). Returns (nil, zero, nil) when the user record is gone.
func (s *Server) entryForUser(ctx context.Context, userID string) (*assessment.Entry, models.User, error) {
	if entry := s.registry.Get(userID); entry != nil {
		if user, ok := entry.Handle.Current(); ok {
			return entry, user, nil
		}
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, models.User{}, err
	}
	if user == nil || !user.IsActive {
		return nil, models.User{}, nil
	}

	entry := s.registry.GetOrCreate(userID, func() *assessment.Entry {
		handle := identity.NewHandle()
		return &assessment.Entry{
			Handle:  handle,
			Tracker: assessment.NewTracker(s.repo, handle, s.notifier),
		}
	})
	entry.Handle.Set(*user)
	return entry, *user, nil
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
