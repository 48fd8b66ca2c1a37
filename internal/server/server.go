// Package server exposes the search pipeline over HTTP.
//
// The API surface is intentionally small: one search endpoint mirroring the
// CLI search command, plus a health endpoint for container probes. Responses
// reuse the search package wire types, so CLI --json output and API output
// are identical.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Aman-CERP/tcodefinder/internal/search"
	"github.com/Aman-CERP/tcodefinder/pkg/version"
)

// Searcher is the subset of the pipeline the HTTP layer needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) (*search.Response, error)
}

var _ Searcher = (*search.Finder)(nil)

// Server wraps an echo instance serving the search API.
type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
}

// New builds a Server routing requests to the given Searcher.
func New(finder Searcher, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Error("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h := &searchHandler{finder: finder, logger: logger}
	e.GET("/api/v1/search", h.Handle)
	e.GET("/health", handleHealth)

	return &Server{echo: e, logger: logger}
}

// Handler returns the underlying http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and serves until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
