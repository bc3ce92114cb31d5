// Package server provides the HTTP API of the product advisor.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"product_advisor/internal/core"
	"product_advisor/internal/logger"
	"product_advisor/internal/nodes"
	"product_advisor/pkg"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Advisor is the dialogue surface served over HTTP
type Advisor interface {
	HandleTurn(ctx context.Context, sessionID, utterance string) (pkg.TurnResult, error)
	Inspect(ctx context.Context, sessionID string) (pkg.PreferenceRecord, error)
	SearchDirect(ctx context.Context, record pkg.PreferenceRecord) ([]pkg.ProductRecord, error)
	Reset(ctx context.Context, sessionID string) (bool, error)
}

// ToolRunner executes agent tools by name
type ToolRunner interface {
	Infos() []*schema.ToolInfo
	Run(ctx context.Context, name, arguments string) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides HTTP endpoints for the advisor.
type Server struct {
	echo     *echo.Echo
	advisor  Advisor
	gatherer prometheus.Gatherer
	config   *Config
}

// NewServer creates a new HTTP server. A nil gatherer disables /metrics.
func NewServer(advisor Advisor, gatherer prometheus.Gatherer, cfg *Config) (*Server, error) {
	if advisor == nil {
		return nil, fmt.Errorf("advisor cannot be nil")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info().
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("http request")

			return err
		}
	})

	s := &Server{
		echo:     e,
		advisor:  advisor,
		gatherer: gatherer,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)

	s.echo.POST("/chat", s.handleChat)
	s.echo.POST("/session/new", s.handleNewSession)
	s.echo.GET("/session/:id/memory", s.handleSessionMemory)
	s.echo.DELETE("/session/:id", s.handleSessionReset)
	s.echo.GET("/products/search", s.handleSearch)

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterTools exposes tools under /tools.
func (s *Server) RegisterTools(tools ToolRunner) {
	s.echo.GET("/tools", func(c echo.Context) error {
		infos := tools.Infos()
		resp := make([]ToolInfoResponse, 0, len(infos))
		for _, info := range infos {
			resp = append(resp, ToolInfoResponse{Name: info.Name, Description: info.Desc})
		}
		return c.JSON(http.StatusOK, resp)
	})

	s.echo.POST("/tools/:name", func(c echo.Context) error {
		name := c.Param("name")
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		output, err := tools.Run(c.Request().Context(), name, string(body))
		if err != nil {
			if errors.Is(err, nodes.ErrUnknownTool) {
				return echo.NewHTTPError(http.StatusNotFound, "unknown tool")
			}
			logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "tool call failed")
		}
		return c.JSON(http.StatusOK, ToolResultResponse{Tool: name, Output: output})
	})
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Reply               string              `json:"reply"`
	SessionID           string              `json:"session_id"`
	NeedsMoreInfo       bool                `json:"needs_more_info"`
	RecommendedProducts []pkg.ProductRecord `json:"recommended_products"`
}

// SessionResponse is the response body for POST /session/new.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ResetResponse is the response body for DELETE /session/:id.
type ResetResponse struct {
	SessionID string `json:"session_id"`
	Existed   bool   `json:"existed"`
}

// ToolInfoResponse describes one tool for GET /tools.
type ToolInfoResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolResultResponse is the response body for POST /tools/:name.
type ToolResultResponse struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Product advisor API is running"})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleChat runs one dialogue turn.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn().Err(err).Msg("invalid chat request")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}

	result, err := s.advisor.HandleTurn(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		var perr *core.PersistenceError
		if !errors.As(err, &perr) {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("chat turn failed")
			result = pkg.TurnResult{Reply: core.ApologyReply, NeedsMoreInfo: true}
		} else {
			logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("chat turn answered without persistence")
		}
	}

	products := result.Matches
	if products == nil {
		products = []pkg.ProductRecord{}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Reply:               result.Reply,
		SessionID:           req.SessionID,
		NeedsMoreInfo:       result.NeedsMoreInfo,
		RecommendedProducts: products,
	})
}

// handleNewSession issues a fresh session id.
func (s *Server) handleNewSession(c echo.Context) error {
	return c.JSON(http.StatusOK, SessionResponse{SessionID: uuid.NewString()})
}

// handleSessionMemory returns the stored preference record.
func (s *Server) handleSessionMemory(c echo.Context) error {
	record, err := s.advisor.Inspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		logger.Warn().Err(err).Msg("session inspect failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
	}
	return c.JSON(http.StatusOK, record)
}

// handleSessionReset forgets the stored preference record.
func (s *Server) handleSessionReset(c echo.Context) error {
	id := c.Param("id")
	existed, err := s.advisor.Reset(c.Request().Context(), id)
	if err != nil {
		logger.Warn().Err(err).Msg("session reset failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
	}
	return c.JSON(http.StatusOK, ResetResponse{SessionID: id, Existed: existed})
}

// handleSearch matches query parameters against the catalog.
func (s *Server) handleSearch(c echo.Context) error {
	var record pkg.PreferenceRecord

	if raw := c.QueryParam("budget"); raw != "" {
		budget, err := strconv.ParseFloat(raw, 64)
		if err != nil || budget < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "budget must be a non-negative number")
		}
		record.Budget = &budget
	}
	record.Category = c.QueryParam("category")
	record.Purpose = pkg.Purpose(c.QueryParam("purpose"))
	record.BrandPreference = c.QueryParam("brand")

	products, err := s.advisor.SearchDirect(c.Request().Context(), record)
	if err != nil {
		logger.Warn().Err(err).Msg("direct search failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "catalog unavailable")
	}
	if products == nil {
		products = []pkg.ProductRecord{}
	}
	return c.JSON(http.StatusOK, products)
}

// Handler exposes the router, used by tests and embedding servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.Info().Str("addr", addr).Msg("starting http server")
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info().Msg("shutting down http server")
	return s.echo.Shutdown(ctx)
}
