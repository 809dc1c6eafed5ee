package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/go-coders/groq-relay/internal/keypool"
	"github.com/go-coders/groq-relay/internal/relay"
	"github.com/go-coders/groq-relay/pkg/config"
	"github.com/go-coders/groq-relay/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Server represents the relay HTTP server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	relay      *relay.Relay
	httpServer *http.Server
	ready      chan struct{}
	readyOnce  sync.Once
	addr       string
}

// New creates a server serving the relay on cfg.Route
func New(cfg *config.Config) *Server {
	keys := keypool.NewViperSource(cfg.Viper, config.KeysEnv)
	return NewWithRelay(cfg, relay.New(keys, cfg.UpstreamURL, cfg.DefaultModel))
}

// NewWithRelay creates a server around an existing relay
func NewWithRelay(cfg *config.Config, r *relay.Relay) *Server {
	s := &Server{
		config: cfg,
		router: NewRouter(cfg, r),
		relay:  r,
		ready:  make(chan struct{}),
	}
	return s
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg *config.Config, r *relay.Relay) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(RequestID(), AccessLog(), Recovery())

	if cfg.CORSEnabled() {
		corsConfig := cors.DefaultConfig()
		if cfg.AllowAllOrigins() {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = cfg.CORSOrigins
		}
		corsConfig.AllowMethods = []string{"POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
		corsConfig.ExposeHeaders = []string{RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Any(cfg.Route, r.Handle)
	// methods outside gin's standard set never match Any
	router.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == cfg.Route {
			r.Handle(c)
		}
	})
	return router
}

// Handler returns the HTTP handler, for embedding in other hosts
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return NewError(ErrListen, fmt.Sprintf("listen on port %d", s.config.Port), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.addr = ln.Addr().String()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(ln)
	}()

	logger.Info("relay listening on %s%s", s.addr, s.config.Route)
	s.readyOnce.Do(func() { close(s.ready) })

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return NewError(ErrServe, "serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return NewError(ErrShutdown, "shutdown", err)
	}
	logger.Info("relay stopped")
	return nil
}

// Ready returns the ready channel
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address once Ready is closed
func (s *Server) Addr() string {
	return s.addr
}
