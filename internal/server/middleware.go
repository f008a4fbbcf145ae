package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/i18n"
)

type ctxKey int

const (
	userKey ctxKey = iota
	langKey
)

var (
	errUnauthorized = errors.New("authentication required")
	errForbidden    = errors.New("admin role required")
)

func userFrom(ctx context.Context) *content.User {
	u, _ := ctx.Value(userKey).(*content.User)
	return u
}

func langFrom(ctx context.Context) string {
	if l, ok := ctx.Value(langKey).(string); ok {
		return l
	}
	return i18n.Default
}

// logRequests logs one line per request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		}
		if status >= http.StatusInternalServerError {
			s.Logger.Warn("request completed", attrs...)
			return
		}
		s.Logger.Info("request completed", attrs...)
	})
}

// cors allows the configured origins to call the API with credentials.
// Other origins get no CORS headers, so browsers keep them out. With no
// origins configured the API is same-origin only.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !slices.Contains(s.opts.CORSOrigins, origin) {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadSession resolves the request language and, when a valid session
// token is present, the current user.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), langKey, i18n.Negotiate(r))
		if token := auth.TokenFrom(r); token != "" {
			u, err := s.Auth.UserForToken(ctx, token)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, userKey, u)
			case errors.Is(err, auth.ErrSessionNotFound):
			default:
				s.Logger.Error("load session", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r.Context()) == nil {
			s.writeError(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r.Context())
		switch {
		case u == nil:
			s.writeError(w, r, errUnauthorized)
		case !u.IsAdmin():
			s.writeError(w, r, errForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
