package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKey = "postbed.session"

// State is the per-request view of the client's consistency tokens.
// Handlers read the observed token for their vault before serving reads
// and capture the new token after writes; the middleware folds captured
// tokens back into the outbound cookies.
type State struct {
	store    *Store
	captured []Token
}

// Token returns the client's observed token for a scope, if any.
func (s *State) Token(scope string) (Token, bool) {
	return s.store.Get(scope)
}

// Capture records a token produced by a write. The token is merged into
// the session (max-LSN wins) and written back to the client.
func (s *State) Capture(t Token) {
	if t.IsZero() {
		return
	}
	s.store.Update(t)
	s.captured = append(s.captured, t)
}

type middlewareConfig struct {
	maxScopes int
	ttl       time.Duration
}

// Option tunes the middleware's per-request token store.
type Option func(*middlewareConfig)

// WithMaxScopes caps how many vault scopes a session tracks.
func WithMaxScopes(n int) Option {
	return func(cfg *middlewareConfig) { cfg.maxScopes = n }
}

// WithTTL sets how long an unused token stays valid.
func WithTTL(d time.Duration) Option {
	return func(cfg *middlewareConfig) { cfg.ttl = d }
}

// cookieWriter defers the Set-Cookie emission to the last possible
// moment before the response headers hit the wire. Rendering a body
// flushes headers inside the handler, so writing cookies after c.Next()
// would be too late for any handler that responds with c.JSON.
type cookieWriter struct {
	gin.ResponseWriter
	codec CookieCodec
	req   *http.Request
	state *State
	done  bool
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	w.inject()
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) WriteString(s string) (int, error) {
	w.inject()
	return w.ResponseWriter.WriteString(s)
}

func (w *cookieWriter) WriteHeaderNow() {
	w.inject()
	w.ResponseWriter.WriteHeaderNow()
}

// inject adds the session cookies once, and only while the headers are
// still mutable. Pure reads leave the client's cookies untouched.
func (w *cookieWriter) inject() {
	if w.done {
		return
	}
	w.done = true
	if w.Written() {
		return
	}
	if len(w.state.captured) > 0 {
		w.codec.Write(w.ResponseWriter, w.req, w.state.store.Tokens())
	}
}

// Middleware reads csmsdb cookies into a request-scoped State and
// writes the merged token set back to the client whenever a handler
// captured a token. The codec's limits govern cookie count and size.
func Middleware(codec CookieCodec, opts ...Option) gin.HandlerFunc {
	cfg := middlewareConfig{maxScopes: DefaultMaxScopes, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		store := NewStore(cfg.maxScopes, cfg.ttl)
		for _, t := range codec.Read(c.Request) {
			store.Update(t)
		}

		state := &State{store: store}
		cw := &cookieWriter{ResponseWriter: c.Writer, codec: codec, req: c.Request, state: state}
		c.Writer = cw
		c.Set(contextKey, state)

		c.Next()

		// Handlers that only set a status never flushed; gin writes the
		// header after the chain returns, so the cookies go out here.
		cw.inject()
	}
}

// FromContext returns the request's session state. The second return is
// false when the middleware is not installed.
func FromContext(c *gin.Context) (*State, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	state, ok := v.(*State)
	return state, ok
}
