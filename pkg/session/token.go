// Package session implements read-your-writes consistency tokens for
// replicated vaults, carried between client and server in cookies.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedToken is returned when a token string cannot be parsed.
	ErrMalformedToken = errors.New("session: malformed token")
)

// Token records the write position a client has observed for one vault.
// The wire form is "scope:version#lsn", e.g. "a3b1...:1#42".
type Token struct {
	// Scope identifies the vault the token applies to.
	Scope string
	// Version is the token format version. Currently always 1.
	Version int
	// LSN is the logical sequence number of the last observed write.
	LSN int64
}

// Parse decodes the wire form of a token.
func Parse(raw string) (Token, error) {
	scope, rest, ok := strings.Cut(raw, ":")
	if !ok || scope == "" {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, raw)
	}

	verStr, lsnStr, ok := strings.Cut(rest, "#")
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, raw)
	}

	version, err := strconv.Atoi(verStr)
	if err != nil || version < 1 {
		return Token{}, fmt.Errorf("%w: bad version in %q", ErrMalformedToken, raw)
	}

	lsn, err := strconv.ParseInt(lsnStr, 10, 64)
	if err != nil || lsn < 0 {
		return Token{}, fmt.Errorf("%w: bad lsn in %q", ErrMalformedToken, raw)
	}

	return Token{Scope: scope, Version: version, LSN: lsn}, nil
}

// String encodes the token in wire form.
func (t Token) String() string {
	return t.Scope + ":" + strconv.Itoa(t.Version) + "#" + strconv.FormatInt(t.LSN, 10)
}

// IsZero reports whether the token is the zero value.
func (t Token) IsZero() bool {
	return t.Scope == "" && t.Version == 0 && t.LSN == 0
}

// Merge returns the token with the higher LSN. Both tokens must share a
// scope; mismatched scopes return the receiver unchanged.
func (t Token) Merge(other Token) Token {
	if other.Scope != t.Scope {
		return t
	}
	if other.LSN > t.LSN {
		return other
	}
	return t
}

// Compare orders two same-scope tokens by LSN: -1 if t is behind other,
// 0 if equal, +1 if ahead.
func (t Token) Compare(other Token) int {
	switch {
	case t.LSN < other.LSN:
		return -1
	case t.LSN > other.LSN:
		return 1
	default:
		return 0
	}
}
