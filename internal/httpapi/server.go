package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/postbed/postbed/pkg/core"
	"github.com/postbed/postbed/pkg/session"
)

// Server serves a vault over HTTP.
type Server struct {
	svc    *core.Service
	cfg    Config
	logger *slog.Logger
}

// NewServer wires a Service to the HTTP layer. A nil logger disables
// request logging.
func NewServer(svc *core.Service, cfg Config, logger *slog.Logger) *Server {
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Router builds the gin engine with the session middleware and all
// routes installed.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.logger != nil {
		r.Use(s.requestLogger())
	}

	codec := session.CookieCodec{
		MaxCookies:     s.cfg.MaxCookies,
		MaxCookieBytes: s.cfg.MaxCookieBytes,
		Secure:         s.cfg.CookieSecure,
	}
	var opts []session.Option
	if s.cfg.SessionMaxScopes > 0 {
		opts = append(opts, session.WithMaxScopes(s.cfg.SessionMaxScopes))
	}
	if s.cfg.SessionTTL > 0 {
		opts = append(opts, session.WithTTL(s.cfg.SessionTTL))
	}
	r.Use(session.Middleware(codec, opts...))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/posts", s.handleList)
		api.GET("/posts/*id", s.handleGet)
		api.PUT("/posts/*id", s.handleSave)
		api.DELETE("/posts/*id", s.handleDelete)
		api.POST("/sync", s.handleSync)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.logger != nil {
			s.logger.Info("http server listening", "addr", s.cfg.Addr)
		}
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
