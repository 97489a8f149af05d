package session

import (
	"sync"
	"time"
)

const (
	// DefaultMaxScopes bounds how many vault scopes one session tracks.
	DefaultMaxScopes = 64
	// DefaultTTL is how long an unused token stays valid server-side.
	DefaultTTL = 30 * time.Minute
)

type storeEntry struct {
	token    Token
	lastUsed time.Time
}

// Store holds the per-scope tokens of one logical session. It is safe
// for concurrent use. Scopes are evicted least-recently-used once
// maxScopes is exceeded, and expire after ttl of disuse.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*storeEntry
	maxScopes int
	ttl       time.Duration
	now       func() time.Time
}

// NewStore creates a Store. maxScopes <= 0 and ttl <= 0 select the
// defaults.
func NewStore(maxScopes int, ttl time.Duration) *Store {
	if maxScopes <= 0 {
		maxScopes = DefaultMaxScopes
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries:   make(map[string]*storeEntry),
		maxScopes: maxScopes,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Get returns the live token for a scope. Expired entries are treated
// as absent.
func (s *Store) Get(scope string) (Token, bool) {
	s.mu.RLock()
	entry, ok := s.entries[scope]
	s.mu.RUnlock()

	if !ok {
		return Token{}, false
	}
	if s.now().Sub(entry.lastUsed) > s.ttl {
		return Token{}, false
	}
	return entry.token, true
}

// Update merges a token into the store: an existing same-scope token is
// advanced only if the new LSN is higher, so stale tokens never regress
// what the session has already observed.
func (s *Store) Update(t Token) {
	if t.Scope == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[t.Scope]; ok {
		entry.token = entry.token.Merge(t)
		entry.lastUsed = now
		return
	}

	s.evictLocked(now)
	s.entries[t.Scope] = &storeEntry{token: t, lastUsed: now}
}

// Touch refreshes a scope's last-used time without changing its token.
func (s *Store) Touch(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[scope]; ok {
		entry.lastUsed = s.now()
	}
}

// Tokens returns every live token, for serialization into cookies.
func (s *Store) Tokens() []Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	tokens := make([]Token, 0, len(s.entries))
	for _, entry := range s.entries {
		if now.Sub(entry.lastUsed) > s.ttl {
			continue
		}
		tokens = append(tokens, entry.token)
	}
	return tokens
}

// Len returns the number of tracked scopes, including expired ones not
// yet evicted.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// evictLocked drops expired entries, then the least recently used one
// if the store is still at capacity. Caller holds s.mu.
func (s *Store) evictLocked(now time.Time) {
	for scope, entry := range s.entries {
		if now.Sub(entry.lastUsed) > s.ttl {
			delete(s.entries, scope)
		}
	}

	if len(s.entries) < s.maxScopes {
		return
	}

	var oldest string
	var oldestTime time.Time
	for scope, entry := range s.entries {
		if oldest == "" || entry.lastUsed.Before(oldestTime) {
			oldest = scope
			oldestTime = entry.lastUsed
		}
	}
	if oldest != "" {
		delete(s.entries, oldest)
	}
}
