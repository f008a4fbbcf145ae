package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// Session binds a random token to a user until ExpiresAt.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions is a bbolt-backed session table. Tokens are stored hashed so a
// copy of the file cannot be replayed.
type Sessions struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSessions opens (or creates) the session file at path.
func OpenSessions(path string, ttl time.Duration) (*Sessions, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}
	return &Sessions{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the session file.
func (s *Sessions) Close() error {
	return s.db.Close()
}

// TTL is the lifetime of new sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func tokenKey(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}

// Create starts a session for userID.
func (s *Sessions) Create(userID string) (*Session, error) {
	// 32 random bytes = 64 hex characters
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.now().UTC()
	sess := &Session{
		Token:     hex.EncodeToString(b),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(tokenKey(sess.Token), data)
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Lookup resolves a token. Expired sessions are removed and reported as
// ErrSessionNotFound.
func (s *Sessions) Lookup(token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	key := tokenKey(token)
	var sess Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get(key)
		if v == nil {
			return ErrSessionNotFound
		}
		return json.Unmarshal(v, &sess)
	})
	if err != nil {
		return nil, err
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.Delete(token); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}
	sess.Token = token
	return &sess, nil
}

// Delete ends a session. Unknown tokens are ignored.
func (s *Sessions) Delete(token string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete(tokenKey(token))
	})
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var sess Session
			if err := json.Unmarshal(v, &sess); err != nil || !now.Before(sess.ExpiresAt) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
