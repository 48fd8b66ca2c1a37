package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	tferrors "github.com/Aman-CERP/tcodefinder/internal/errors"
	"github.com/Aman-CERP/tcodefinder/internal/search"
)

// searchHandler handles GET /api/v1/search.
type searchHandler struct {
	finder Searcher
	logger *slog.Logger
}

// Handle answers a free-text query with ranked transaction codes.
//
// Query parameters:
//
//	q      required free-text query
//	limit  optional result cap, positive integer
//	module optional application module filter (e.g., MM, SD, FI)
func (h *searchHandler) Handle(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}

	var opts search.Options
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'limit' must be a positive integer")
		}
		opts.Limit = n
	}
	opts.Module = c.QueryParam("module")

	resp, err := h.finder.Search(c.Request().Context(), query, opts)
	if err != nil {
		h.logger.Error("search request failed", "query", query, "error", err)
		// Retryable failures (catalog temporarily unreachable) are 503 so
		// clients know trying again can help; anything else is a plain 500.
		if tferrors.IsRetryable(err) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search temporarily unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, resp)
}
