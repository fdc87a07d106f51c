package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
	"github.com/OFFIS-RIT/lexgraph/pkg/tokenize"

	"github.com/labstack/echo/v4"
)

// errorResponse maps pipeline and storage errors to a status code: invalid
// sentences are 400, unknown analyses 404, everything else 500.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, tokenize.ErrEmptyInput),
		errors.Is(err, tokenize.ErrInvalidText),
		errors.Is(err, graph.ErrEmptyChain):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	logger.Error("[Server] Request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
