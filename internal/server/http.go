// Package server assembles the HTTP surface: router, middleware and the
// listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"connectme/backend/internal/auth"
	"connectme/backend/internal/session"
)

const serviceName = "connectme-backend"

// RouteRegistrar mounts a handler's routes on a router group.
type RouteRegistrar interface {
	Register(r gin.IRouter)
}

// Routes collects the handlers the router serves.
type Routes struct {
	// Public handlers run behind the session middleware.
	Registration RouteRegistrar
	Login        RouteRegistrar

	// Protected handlers run behind the auth middleware.
	Account   RouteRegistrar
	Interests RouteRegistrar
}

// NewRouter builds the gin engine with the full middleware chain and all
// application routes.
func NewRouter(log *zap.Logger, sessions *session.Store, tokens *auth.TokenService, routes Routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/", session.Middleware(sessions))
	routes.Registration.Register(public)
	routes.Login.Register(public)

	protected := r.Group("/", auth.RequireAuth(tokens))
	routes.Account.Register(protected)
	routes.Interests.Register(protected)

	return r
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log *zap.Logger
}

// New creates a server listening on addr and serving handler.
func New(addr string, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
