// Package httpapi provides the HTTP API for metalearnd.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metalearn/internal/learning"
	"github.com/fyrsmithlabs/metalearn/internal/task"
	"github.com/fyrsmithlabs/metalearn/internal/zeroshot"
)

// maxImportBodySize bounds state-import payloads.
const maxImportBodySize = 8 * 1024 * 1024 // 8MB

// Server provides HTTP endpoints for metalearnd.
type Server struct {
	echo    *echo.Echo
	service *learning.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(service *learning.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("learning service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8520,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and Prometheus scrape endpoint
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/learn", s.handleLearn)
	v1.POST("/zeroshot/:capability", s.handleZeroShot)

	users := v1.Group("/users/:id")
	users.GET("/state", s.handleGetState)
	users.GET("/metrics", s.handleGetMetrics)
	users.POST("/reset", s.handleReset)
	users.GET("/export", s.handleExport)
	users.POST("/import", s.handleImport)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ZeroShotRequest is the request body for POST /api/v1/zeroshot/:capability.
type ZeroShotRequest struct {
	Input    task.Value        `json:"input"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ZeroShotResponse is the response body for POST /api/v1/zeroshot/:capability.
type ZeroShotResponse struct {
	Capability string     `json:"capability"`
	Output     task.Value `json:"output"`
}

// ResetResponse is the response body for POST /api/v1/users/:id/reset.
type ResetResponse struct {
	Reset bool `json:"reset"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleLearn processes one learning request. Strategy failures are 200s
// with success=false; only malformed requests get error status codes.
func (s *Server) handleLearn(c echo.Context) error {
	var lc learning.LearningContext
	if err := c.Bind(&lc); err != nil {
		s.logger.Warn("invalid learn request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if lc.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id field is required")
	}
	if lc.TaskType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task_type field is required")
	}
	if lc.Timestamp.IsZero() {
		lc.Timestamp = time.Now()
	}

	result := s.service.ProcessLearningRequest(c.Request().Context(), lc)
	return c.JSON(http.StatusOK, result)
}

// handleZeroShot runs one static capability handler.
func (s *Server) handleZeroShot(c echo.Context) error {
	capability := c.Param("capability")

	var req ZeroShotRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid zero-shot request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	output, err := zeroshot.Handle(capability, req.Input, req.Metadata)
	if err != nil {
		if errors.Is(err, zeroshot.ErrUnknownCapability) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ZeroShotResponse{
		Capability: capability,
		Output:     output,
	})
}

// handleGetState returns the user's learning state snapshot.
func (s *Server) handleGetState(c echo.Context) error {
	snap, ok := s.service.GetLearningState(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no learning state for user")
	}
	return c.JSON(http.StatusOK, snap)
}

// handleGetMetrics returns the user's performance metrics.
func (s *Server) handleGetMetrics(c echo.Context) error {
	metrics, ok := s.service.GetPerformanceMetrics(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no learning state for user")
	}
	return c.JSON(http.StatusOK, metrics)
}

// handleReset discards the user's learning state.
func (s *Server) handleReset(c echo.Context) error {
	reset := s.service.ResetLearningState(c.Param("id"))
	return c.JSON(http.StatusOK, ResetResponse{Reset: reset})
}

// handleExport streams the user's state snapshot as JSON.
func (s *Server) handleExport(c echo.Context) error {
	data, err := s.service.ExportLearningData(c.Param("id"))
	if err != nil {
		if errors.Is(err, learning.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no learning state for user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// handleImport replaces the user's state with the posted snapshot.
func (s *Server) handleImport(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBodySize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	if err := s.service.ImportLearningData(c.Request().Context(), c.Param("id"), data); err != nil {
		if errors.Is(err, learning.ErrInvalidSnapshot) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
