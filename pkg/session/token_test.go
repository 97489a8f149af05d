package session

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		tok := Token{Scope: "vault-a", Version: 1, LSN: 42}
		parsed, err := Parse(tok.String())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if parsed != tok {
			t.Errorf("Expected %+v, got %+v", tok, parsed)
		}
	})

	t.Run("Wire Form", func(t *testing.T) {
		tok := Token{Scope: "abc", Version: 1, LSN: 7}
		if got := tok.String(); got != "abc:1#7" {
			t.Errorf("Expected 'abc:1#7', got %q", got)
		}
	})

	t.Run("Malformed Inputs", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"no-separators",
			":1#7",
			"scope:#7",
			"scope:1#",
			"scope:x#7",
			"scope:1#abc",
			"scope:0#7",
			"scope:1#-3",
		} {
			if _, err := Parse(raw); !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Parse(%q): expected ErrMalformedToken, got %v", raw, err)
			}
		}
	})

	t.Run("Scope May Contain Colons In LSN Part Only", func(t *testing.T) {
		// First colon splits scope; the rest must parse as version#lsn.
		if _, err := Parse("a:b:1#7"); err == nil {
			t.Error("Expected error for nested colon in version")
		}
	})
}

func TestMerge(t *testing.T) {
	a := Token{Scope: "v", Version: 1, LSN: 5}
	b := Token{Scope: "v", Version: 1, LSN: 9}

	if got := a.Merge(b); got.LSN != 9 {
		t.Errorf("Expected merge to take higher LSN 9, got %d", got.LSN)
	}
	if got := b.Merge(a); got.LSN != 9 {
		t.Errorf("Expected merge to keep higher LSN 9, got %d", got.LSN)
	}

	other := Token{Scope: "w", Version: 1, LSN: 100}
	if got := a.Merge(other); got != a {
		t.Errorf("Cross-scope merge must not change token, got %+v", got)
	}
}

func TestCompare(t *testing.T) {
	low := Token{Scope: "v", Version: 1, LSN: 1}
	high := Token{Scope: "v", Version: 1, LSN: 2}

	if low.Compare(high) != -1 {
		t.Error("Expected low < high")
	}
	if high.Compare(low) != 1 {
		t.Error("Expected high > low")
	}
	if low.Compare(low) != 0 {
		t.Error("Expected equal tokens to compare 0")
	}
}
