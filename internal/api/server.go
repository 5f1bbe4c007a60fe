// Package api wires the HTTP surface: routes, middleware, the websocket
// feed, and server lifecycle.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patungan-app/patungan-backend/internal/api/handlers"
	"github.com/patungan-app/patungan-backend/internal/api/middleware"
	"github.com/patungan-app/patungan-backend/internal/application/service"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.BillService
	feed       *handlers.FeedHandler
}

// NewServer creates the API server around the bill service. The store is
// needed directly only for the websocket feed's watch subscriptions.
func NewServer(cfg Config, svc *service.BillService, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		config: cfg,
		router: router,
		logger: logger,
		svc:    svc,
		feed:   handlers.NewFeedHandler(store, logger),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", handlers.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bills := handlers.NewBillsHandler(s.svc, s.logger)
	items := handlers.NewItemsHandler(s.svc, s.logger)
	participants := handlers.NewParticipantsHandler(s.svc, s.logger)
	allocation := handlers.NewAllocationHandler(s.svc, s.logger)

	api := s.router.Group("/api")
	{
		api.POST("/bills", bills.Create)
		api.GET("/bills", bills.List)
		api.GET("/bills/:id", bills.Get)
		api.PATCH("/bills/:id", bills.Patch)
		api.DELETE("/bills/:id", bills.Delete)

		api.POST("/bills/:id/items", items.Create)
		api.DELETE("/bills/:id/items/:itemID", items.Delete)

		api.POST("/bills/:id/participants", participants.Create)
		api.DELETE("/bills/:id/participants/:participantID", participants.Delete)
		api.POST("/bills/:id/participants/:participantID/assignments", participants.AdjustAssignment)
		api.PUT("/bills/:id/participants/:participantID/paid", participants.SetPaid)

		api.GET("/bills/:id/allocation", allocation.Get)
		api.GET("/bills/:id/ws", s.feed.Serve)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then drains
// in-flight requests and closes the websocket feed.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.feed.Close(); err != nil {
		s.logger.Warn("feed close failed", "error", err)
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}
