// Package server provides the HTTP server for the application.
// It handles server lifecycle, API routes, the retention job and graceful shutdown.
package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/api/router"
	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// HTTP server timeout configuration
const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 2 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second
	defaultStopTimeout     = 5 * time.Second
)

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	listener   net.Listener
	router     *gin.Engine
	store      store.Store
	exports    *exporter.ExportManager
	composer   *narrative.Composer
	cleanup    *store.CleanupService
	telemetry  *telemetry.Telemetry
	routesSet  bool
}

// New creates a new server instance. tel may be nil.
func New(cfg *config.Config, s store.Store, tel *telemetry.Telemetry) (*Server, error) {
	// Set Gin mode based on debug flag
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	exports, err := exporter.NewManagerFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var writer narrative.Writer
	if cfg.Narrative.Enabled {
		writer = narrative.NewCLIWriter(cfg.Narrative)
	}
	composer := narrative.NewComposer(writer, cfg.Narrative, cfg.Render.ChartLabels(), logger.Get())

	// Create Gin router
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	return &Server{
		cfg:       cfg,
		router:    r,
		store:     s,
		exports:   exports,
		composer:  composer,
		cleanup:   store.NewCleanupService(s.Report(), cfg.Report.Retention(), cfg.Report.CleanupSchedule),
		telemetry: tel,
	}, nil
}

// SetupRoutes configures all routes. Calling it twice is a no-op.
func (s *Server) SetupRoutes() {
	if s.routesSet {
		return
	}
	router.Setup(s.router, router.Dependencies{
		Config:    s.cfg,
		Store:     s.store,
		Composer:  s.composer,
		Exports:   s.exports,
		Telemetry: s.telemetry,
	})
	s.routesSet = true
}

// Start binds the listen address, starts the retention job and serves in the background.
func (s *Server) Start() error {
	s.SetupRoutes()

	if err := s.cleanup.Start(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		s.cleanup.Stop()
		logger.Error("Failed to bind server address", zap.String("address", s.cfg.Server.Address()), zap.Error(err))
		return err
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  orDefault(s.cfg.Server.ReadTimeout, defaultReadTimeout),
		WriteTimeout: orDefault(s.cfg.Server.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  defaultIdleTimeout,
	}

	consts.SetStartedAt(time.Now())
	logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("debug", s.cfg.Server.Debug),
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// WaitForShutdown waits for shutdown signal and gracefully stops the server
// First signal triggers graceful shutdown, second signal forces immediate exit
func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("Received shutdown signal, starting graceful shutdown (press Ctrl+C again to force exit)",
		zap.String("signal", sig.String()))

	go func() {
		sig := <-quit
		logger.Warn("Received second shutdown signal, forcing exit",
			zap.String("signal", sig.String()))
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// Shutdown drains in-flight requests, then stops the retention job and telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.cleanup.Stop()
	if tErr := s.telemetry.Shutdown(ctx); tErr != nil && err == nil {
		err = tErr
	}
	return err
}

// Stop stops the server with a short timeout
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultStopTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
