// Package auth handles password accounts and cookie sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pidruchnyk-placeholder"), bcrypt.DefaultCost)

// Service registers and authenticates users.
type Service struct {
	store    *store.Store
	sessions *Sessions
	cost     int
}

// NewService creates a Service. cost 0 means bcrypt.DefaultCost.
func NewService(s *store.Store, sessions *Sessions, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: s, sessions: sessions, cost: cost}
}

// Sessions exposes the session table.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// CreateUser stores a new account with the given role.
func (s *Service) CreateUser(ctx context.Context, email, password, displayName, role string) (*content.User, error) {
	if len([]rune(password)) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	u := &content.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Register creates a regular user and opens a session for it.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*content.User, *Session, error) {
	u, err := s.CreateUser(ctx, email, password, displayName, content.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Authenticate checks credentials without opening a session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*content.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*content.User, *Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Logout ends the session identified by token.
func (s *Service) Logout(token string) error {
	return s.sessions.Delete(token)
}

// UserForToken resolves a session token to its user. Sessions of deleted
// users are dropped.
func (s *Service) UserForToken(ctx context.Context, token string) (*content.User, error) {
	sess, err := s.sessions.Lookup(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users().Get(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.sessions.Delete(token)
		return nil, ErrSessionNotFound
	}
	return u, err
}
