// Package session keeps per-browser state (the recently viewed products)
// in Redis, or in process memory when Redis is not connected.
//
//	r.Use(session.Middleware(session.DefaultOptions()))
//
//	sess := session.FromCtx(r)
//	sess.Set("recent", ids)
//	sess.Save(w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/cache"
)

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
	Store      Store
}

// DefaultOptions returns the shop's cookie settings with the Redis store.
func DefaultOptions() Options {
	return Options{
		CookieName: "storefront_session",
		TTL:        7 * 24 * time.Hour,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
		Store:      RedisStore{},
	}
}

// Store persists raw session data by id.
type Store interface {
	Load(id string) (map[string]interface{}, error)
	Save(id string, data []byte, ttl time.Duration) error
}

// RedisStore keeps sessions under storefront:session:{id}. It falls back
// to a process-local MemoryStore while Redis is unavailable.
type RedisStore struct{}

var fallback = NewMemoryStore()

func redisKey(id string) string { return "storefront:session:" + id }

func (RedisStore) Load(id string) (map[string]interface{}, error) {
	if !cache.Available() {
		return fallback.Load(id)
	}
	var data map[string]interface{}
	if cache.Get(redisKey(id), &data) {
		return data, nil
	}
	return map[string]interface{}{}, nil
}

func (RedisStore) Save(id string, data []byte, ttl time.Duration) error {
	if !cache.Available() {
		return fallback.Save(id, data, ttl)
	}
	return cache.Set(redisKey(id), json.RawMessage(data), ttl)
}

// MemoryStore is a map-backed Store with expiry.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]memoryEntry{}}
}

func (m *MemoryStore) Load(id string) (map[string]interface{}, error) {
	m.mu.Lock()
	e, ok := m.data[id]
	if ok && time.Now().After(e.expires) {
		delete(m.data, id)
		ok = false
	}
	m.mu.Unlock()

	out := map[string]interface{}{}
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal(e.raw, &out); err != nil {
		return map[string]interface{}{}, err
	}
	return out, nil
}

func (m *MemoryStore) Save(id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.data[id] = memoryEntry{raw: data, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

type ctxKey struct{}

// Session is an in-request session handle.
type Session struct {
	mu      sync.Mutex
	id      string
	data    map[string]interface{}
	opts    Options
	changed bool
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Session) Set(key string, value interface{}) {
	s.mu.Lock()
	s.data[key] = value
	s.changed = true
	s.mu.Unlock()
}

func (s *Session) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetUints reads a list of ids. Values loaded from the store arrive as
// JSON numbers (float64); values set in this request are []uint.
func (s *Session) GetUints(key string) []uint {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []uint:
		return append([]uint(nil), list...)
	case []interface{}:
		out := make([]uint, 0, len(list))
		for _, item := range list {
			if f, ok := item.(float64); ok && f > 0 {
				out = append(out, uint(f))
			}
		}
		return out
	}
	return nil
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.changed = true
	s.mu.Unlock()
}

// Invalidate empties the session.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.data = map[string]interface{}{}
	s.changed = true
	s.mu.Unlock()
}

func (s *Session) ID() string { return s.id }

// Save persists the session and writes the cookie. Unchanged sessions are
// not written.
func (s *Session) Save(w http.ResponseWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed {
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	store := s.opts.Store
	if store == nil {
		store = RedisStore{}
	}
	if err := store.Save(s.id, raw, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})

	s.changed = false
	return nil
}

// Middleware loads (or creates) the session for every request and injects
// it into the request context.
func Middleware(opts Options) func(http.Handler) http.Handler {
	if opts.Store == nil {
		opts.Store = RedisStore{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts, data: map[string]interface{}{}}

			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				sess.id = cookie.Value
				if data, err := opts.Store.Load(sess.id); err == nil {
					sess.data = data
				}
			} else {
				sess.id, _ = newID()
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromCtx returns the request's session, or a fresh unsaved one when the
// middleware did not run.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	id, _ := newID()
	return &Session{id: id, data: map[string]interface{}{}, opts: DefaultOptions()}
}
