// Package server exposes the JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/media"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/render"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/suggest"
)

// Request body limits.
const (
	maxJSONBody         = 1 << 20
	maxCoverBody        = media.MaxCoverSize + 1<<20
	defaultSuggestCount = 5
)

// Deps are the services the handlers call.
type Deps struct {
	Store    *store.Store
	Auth     *auth.Service
	Progress *progress.Service
	Suggest  *suggest.Service
	Media    media.Store
	// MediaFiles serves /media/ for the local backend. Nil disables the
	// route.
	MediaFiles http.Handler
	Markdown   *render.Markdown
	Logger     *slog.Logger
}

// Options tune HTTP behaviour.
type Options struct {
	CookieSecure bool
	CORSOrigins  []string
	// CacheTTL of zero disables the response cache.
	CacheTTL time.Duration
}

// Server holds the handlers.
type Server struct {
	Deps
	opts  Options
	cache *responseCache
}

// New creates a Server.
func New(deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Markdown == nil {
		deps.Markdown = render.New()
	}
	return &Server{Deps: deps, opts: opts, cache: newResponseCache(opts.CacheTTL)}
}

// Handler returns the root handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	r.Use(s.loadSession)

	r.Get("/health", s.handleHealth)
	if s.MediaFiles != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", s.MediaFiles))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/session", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/users/me", s.handleMe)
			r.Get("/users/me/progress", s.handleProgress)
			r.Post("/books/{id}/learning/start", s.handleStartLearning)
			r.Post("/books/{id}/learning/stop", s.handleStopLearning)
			r.Post("/questions/{id}/attempts", s.handleAttempt)
		})

		// Public reads.
		r.Group(func(r chi.Router) {
			r.Use(s.cached)
			r.Get("/levels", s.handleListLevels)
			r.Get("/subjects", s.handleListSubjects)
			r.Get("/subjects/{id}", s.handleGetSubject)
			r.Get("/subjects/{id}/books", s.handleListBooks)
			r.Get("/books/{id}", s.handleGetBook)
			r.Get("/books/{id}/topics", s.handleListTopics)
			r.Get("/topics/{id}", s.handleGetTopic)
			r.Get("/topics/{id}/theory", s.handleGetTheory)
			r.Get("/topics/{id}/questions", s.handleListQuestions)
			r.Get("/questions/{id}", s.handleGetQuestion)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/levels", s.handleCreateLevel)
			r.Put("/levels/{id}", s.handleUpdateLevel)
			r.Delete("/levels/{id}", s.handleDeleteLevel)

			r.Post("/subjects", s.handleCreateSubject)
			r.Put("/subjects/{id}", s.handleUpdateSubject)
			r.Delete("/subjects/{id}", s.handleDeleteSubject)
			r.Put("/subjects/{id}/cover", s.handleSubjectCover)
			r.Post("/subjects/{id}/books", s.handleCreateBook)

			r.Put("/books/{id}", s.handleUpdateBook)
			r.Delete("/books/{id}", s.handleDeleteBook)
			r.Put("/books/{id}/cover", s.handleBookCover)
			r.Post("/books/{id}/topics", s.handleCreateTopic)
			r.Post("/books/{id}/topics/suggestions", s.handleSuggestTopics)
			r.Post("/books/{id}/topics/suggestions/apply", s.handleApplyTopics)

			r.Put("/topics/{id}", s.handleUpdateTopic)
			r.Delete("/topics/{id}", s.handleDeleteTopic)
			r.Post("/topics/{id}/theory/suggestions", s.handleSuggestTheory)
			r.Post("/topics/{id}/theory/suggestions/apply", s.handleApplyTheory)
			r.Post("/topics/{id}/questions", s.handleCreateQuestion)
			r.Post("/topics/{id}/questions/suggestions", s.handleSuggestQuestions)
			r.Post("/topics/{id}/questions/suggestions/apply", s.handleApplyQuestions)

			r.Put("/questions/{id}", s.handleUpdateQuestion)
			r.Delete("/questions/{id}", s.handleDeleteQuestion)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DB().PingContext(r.Context()); err != nil {
		s.Logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
