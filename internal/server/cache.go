package server

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"
)

// responseCache keeps successful public GET responses until they expire or
// a mutation revalidates their path prefix.
type responseCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	path        string
	contentType string
	body        []byte
	expires     time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *responseCache) enabled() bool { return c.ttl > 0 }

func (c *responseCache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return cacheEntry{}, false
	}
	return e, true
}

func (c *responseCache) put(key string, e cacheEntry) {
	e.expires = c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// revalidate drops every entry whose path starts with one of prefixes.
func (c *responseCache) revalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(e.path, p) {
				delete(c.entries, key)
				n++
				break
			}
		}
	}
	return n
}

// captureWriter records what a handler writes.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// cached serves GETs from the response cache. Admins always bypass it
// because they see answer keys.
func (s *Server) cached(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cache.enabled() || r.Method != http.MethodGet || userFrom(r.Context()).IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}
		key := langFrom(r.Context()) + " " + r.URL.RequestURI()
		if e, ok := s.cache.get(key); ok {
			w.Header().Set("Content-Type", e.contentType)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(e.body)
			return
		}
		w.Header().Set("X-Cache", "MISS")
		cw := &captureWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)
		if cw.status == http.StatusOK {
			s.cache.put(key, cacheEntry{
				path:        r.URL.Path,
				contentType: w.Header().Get("Content-Type"),
				body:        bytes.Clone(cw.buf.Bytes()),
			})
		}
	})
}

// revalidate drops cached responses under the given path prefixes.
func (s *Server) revalidate(prefixes ...string) {
	if !s.cache.enabled() {
		return
	}
	if n := s.cache.revalidate(prefixes...); n > 0 {
		s.Logger.Debug("revalidated cache", "prefixes", prefixes, "entries", n)
	}
}
