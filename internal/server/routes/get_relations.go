package routes

import (
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetRelationsHandler returns the raw relation dump of a word.
func GetRelationsHandler(c echo.Context) error {
	type getRelationsParams struct {
		Word string `param:"word" validate:"required"`
	}

	params := new(getRelationsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	params.Word = strings.ToLower(strings.TrimSpace(params.Word))
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if app.Relations == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Relations not configured"})
	}
	dump, err := app.Relations.Lookup(c.Request().Context(), params.Word)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dump)
}
