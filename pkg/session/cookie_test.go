package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCookieCodecRead(t *testing.T) {
	t.Run("Collects Tokens Across Cookies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "csmsdb-0", Value: "a:1#3,b:1#5"})
		r.AddCookie(&http.Cookie{Name: "csmsdb-1", Value: "c:1#9"})
		r.AddCookie(&http.Cookie{Name: "other", Value: "x:1#1"})

		tokens := CookieCodec{}.Read(r)
		if len(tokens) != 3 {
			t.Fatalf("Expected 3 tokens, got %d", len(tokens))
		}
	})

	t.Run("Skips Malformed Tokens", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "csmsdb-0", Value: "garbage,a:1#3"})

		tokens := CookieCodec{}.Read(r)
		if len(tokens) != 1 || tokens[0].Scope != "a" {
			t.Fatalf("Expected only the valid token, got %+v", tokens)
		}
	})

	t.Run("Ignores Non Numeric Suffix", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "csmsdb-x", Value: "a:1#3"})

		if tokens := (CookieCodec{}).Read(r); len(tokens) != 0 {
			t.Fatalf("Expected no tokens, got %+v", tokens)
		}
	})
}

func TestCookieCodecWrite(t *testing.T) {
	t.Run("Deterministic Ordering", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		CookieCodec{}.Write(w, r, []Token{
			{Scope: "b", Version: 1, LSN: 2},
			{Scope: "a", Version: 1, LSN: 1},
		})

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("Expected 1 cookie, got %d", len(cookies))
		}
		if cookies[0].Name != "csmsdb-0" {
			t.Errorf("Expected csmsdb-0, got %s", cookies[0].Name)
		}
		if cookies[0].Value != "a:1#1,b:1#2" {
			t.Errorf("Expected scope-sorted value, got %q", cookies[0].Value)
		}
		if !cookies[0].HttpOnly {
			t.Error("Expected HttpOnly cookie")
		}
	})

	t.Run("Splits On Byte Limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		codec := CookieCodec{MaxCookieBytes: 20}
		codec.Write(w, r, []Token{
			{Scope: "aaaaaaaa", Version: 1, LSN: 1}, // "aaaaaaaa:1#1" = 12 bytes
			{Scope: "bbbbbbbb", Version: 1, LSN: 2},
		})

		cookies := w.Result().Cookies()
		if len(cookies) != 2 {
			t.Fatalf("Expected 2 cookies after split, got %d", len(cookies))
		}
	})

	t.Run("Caps Cookie Count", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		codec := CookieCodec{MaxCookies: 1, MaxCookieBytes: 14}
		codec.Write(w, r, []Token{
			{Scope: "aaaaaaaa", Version: 1, LSN: 1},
			{Scope: "bbbbbbbb", Version: 1, LSN: 2},
		})

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("Expected 1 cookie, got %d", len(cookies))
		}
		// Lexically smallest scope dropped first.
		if !strings.Contains(cookies[0].Value, "bbbbbbbb") {
			t.Errorf("Expected surviving cookie to hold scope b, got %q", cookies[0].Value)
		}
	})

	t.Run("Expires Stale Slots", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "csmsdb-0", Value: "old:1#1"})
		r.AddCookie(&http.Cookie{Name: "csmsdb-1", Value: "old2:1#1"})

		CookieCodec{}.Write(w, r, []Token{{Scope: "a", Version: 1, LSN: 1}})

		var expired bool
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "csmsdb-1" && ck.MaxAge < 0 {
				expired = true
			}
		}
		if !expired {
			t.Error("Expected csmsdb-1 to be expired")
		}
	})
}
