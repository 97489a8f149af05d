package session

import (
	"fmt"
	"testing"
	"time"
)

func TestStoreUpdateAndGet(t *testing.T) {
	s := NewStore(0, 0)

	s.Update(Token{Scope: "a", Version: 1, LSN: 3})

	tok, ok := s.Get("a")
	if !ok {
		t.Fatal("Expected token for scope 'a'")
	}
	if tok.LSN != 3 {
		t.Errorf("Expected LSN 3, got %d", tok.LSN)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Expected no token for unknown scope")
	}
}

func TestStoreNeverRegresses(t *testing.T) {
	s := NewStore(0, 0)

	s.Update(Token{Scope: "a", Version: 1, LSN: 10})
	s.Update(Token{Scope: "a", Version: 1, LSN: 4}) // stale

	tok, _ := s.Get("a")
	if tok.LSN != 10 {
		t.Errorf("Stale update regressed LSN to %d, want 10", tok.LSN)
	}
}

func TestStoreIgnoresEmptyScope(t *testing.T) {
	s := NewStore(0, 0)
	s.Update(Token{Version: 1, LSN: 1})
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", s.Len())
	}
}

func TestStoreLRUEviction(t *testing.T) {
	s := NewStore(3, time.Hour)

	base := time.Now()
	clock := base
	s.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		s.Update(Token{Scope: fmt.Sprintf("s%d", i), Version: 1, LSN: 1})
		clock = clock.Add(time.Second)
	}

	// Touch s0 so s1 becomes the LRU victim.
	s.Touch("s0")
	clock = clock.Add(time.Second)

	s.Update(Token{Scope: "s3", Version: 1, LSN: 1})

	if _, ok := s.Get("s1"); ok {
		t.Error("Expected s1 (least recently used) to be evicted")
	}
	if _, ok := s.Get("s0"); !ok {
		t.Error("Expected touched s0 to survive eviction")
	}
	if _, ok := s.Get("s3"); !ok {
		t.Error("Expected newly added s3 to be present")
	}
}

func TestStoreTTLExpiry(t *testing.T) {
	s := NewStore(0, time.Minute)

	base := time.Now()
	clock := base
	s.now = func() time.Time { return clock }

	s.Update(Token{Scope: "a", Version: 1, LSN: 1})

	clock = base.Add(2 * time.Minute)

	if _, ok := s.Get("a"); ok {
		t.Error("Expected expired token to be treated as absent")
	}
	if got := len(s.Tokens()); got != 0 {
		t.Errorf("Expected Tokens to skip expired entries, got %d", got)
	}
}
