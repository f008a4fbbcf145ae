package server

import (
	"net/http"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registration
	if !s.decode(w, r, validate.Registration, &req) {
		return
	}
	u, sess, err := s.Auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	auth.SetCookie(w, sess, s.opts.CookieSecure)
	s.Logger.Info("user registered", "user", u.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "expires_at": sess.ExpiresAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !s.decode(w, r, validate.Credentials, &req) {
		return
	}
	u, sess, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	auth.SetCookie(w, sess, s.opts.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "expires_at": sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFrom(r); token != "" {
		if err := s.Auth.Logout(token); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	auth.ClearCookie(w, s.opts.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}
