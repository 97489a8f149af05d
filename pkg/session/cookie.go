package session

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	// CookiePrefix names the consistency cookies: csmsdb-0, csmsdb-1, ...
	CookiePrefix = "csmsdb-"
	// DefaultMaxCookies bounds how many consistency cookies are written
	// per response.
	DefaultMaxCookies = 5
	// DefaultMaxCookieBytes bounds the value size of a single cookie,
	// kept under the common 4KB browser limit with header overhead room.
	DefaultMaxCookieBytes = 3800
)

// CookieCodec reads and writes consistency tokens as csmsdb-N cookies.
// Each cookie holds one or more tokens joined by commas; cookies are
// numbered from zero with no gaps.
type CookieCodec struct {
	// MaxCookies caps how many csmsdb-N cookies a response carries.
	// Zero selects DefaultMaxCookies.
	MaxCookies int
	// MaxCookieBytes caps a single cookie value's length. Zero selects
	// DefaultMaxCookieBytes.
	MaxCookieBytes int
	// Secure marks written cookies Secure.
	Secure bool
}

func (c CookieCodec) maxCookies() int {
	if c.MaxCookies <= 0 {
		return DefaultMaxCookies
	}
	return c.MaxCookies
}

func (c CookieCodec) maxBytes() int {
	if c.MaxCookieBytes <= 0 {
		return DefaultMaxCookieBytes
	}
	return c.MaxCookieBytes
}

// Read collects every parseable token from the request's csmsdb-N
// cookies. Malformed tokens are skipped, not fatal: a client with one
// corrupt cookie still gets consistency for its other scopes.
func (c CookieCodec) Read(r *http.Request) []Token {
	var tokens []Token
	for _, ck := range r.Cookies() {
		if !strings.HasPrefix(ck.Name, CookiePrefix) {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimPrefix(ck.Name, CookiePrefix)); err != nil {
			continue
		}
		for _, raw := range strings.Split(ck.Value, ",") {
			t, err := Parse(raw)
			if err != nil {
				continue
			}
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Write serializes tokens into csmsdb-N cookies on the response.
// Tokens are ordered by scope so repeated requests produce identical
// cookies. When the token set outgrows MaxCookies, the lexically
// smallest scopes are dropped first. Previously present cookie slots
// beyond the new count are expired so stale tokens do not linger.
func (c CookieCodec) Write(w http.ResponseWriter, r *http.Request, tokens []Token) {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Scope < tokens[j].Scope })

	values := c.pack(tokens)

	for i, value := range values {
		http.SetCookie(w, &http.Cookie{
			Name:     CookiePrefix + strconv.Itoa(i),
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	// Expire any higher-numbered cookies the client still holds.
	for _, ck := range r.Cookies() {
		if !strings.HasPrefix(ck.Name, CookiePrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(ck.Name, CookiePrefix))
		if err != nil || n < len(values) {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     ck.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// pack joins tokens into cookie values, respecting per-cookie byte and
// total cookie-count limits. Overflowing tokens are dropped from the
// front (tokens arrive scope-sorted, so the drop is deterministic).
func (c CookieCodec) pack(tokens []Token) []string {
	maxCookies := c.maxCookies()
	maxBytes := c.maxBytes()

	var values []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			values = append(values, current.String())
			current.Reset()
		}
	}

	for _, t := range tokens {
		s := t.String()
		if len(s) > maxBytes {
			continue // Single token too large to ever fit.
		}
		need := len(s)
		if current.Len() > 0 {
			need++ // comma
		}
		if current.Len()+need > maxBytes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(',')
		}
		current.WriteString(s)
	}
	flush()

	if len(values) > maxCookies {
		values = values[len(values)-maxCookies:]
	}
	return values
}
