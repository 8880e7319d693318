package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/growthml/leadscore/internal/config"
	"github.com/growthml/leadscore/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server is the HTTP front of the scoring service.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the gin engine, wires middleware and routes, and
// returns a server ready to start.
func NewServer(configs *config.Configs, handler *Handler) *Server {
	env := configs.ApplicationEnv
	if env == "prod" || env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIdMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(AccessLogMiddleware())
	router.Use(TelemetryMiddleware())
	router.Use(BodyLimitMiddleware(configs.MaxRequestBodyBytes))

	handler.RegisterRoutes(router)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", configs.ApplicationPort),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	logger.Info(fmt.Sprintf("Lead scoring API listening on %s", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
