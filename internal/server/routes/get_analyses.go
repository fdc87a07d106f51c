package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetAnalysisHandler(c echo.Context) error {
	type getAnalysisParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getAnalysisParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	analysis, err := app.Storage.GetAnalysis(c.Request().Context(), params.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}
