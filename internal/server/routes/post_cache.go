package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefreshCacheHandler forces a refetch of one cached store.
func RefreshCacheHandler(c echo.Context) error {
	type refreshParams struct {
		Store string `param:"store" validate:"required"`
	}

	params := new(refreshParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	for _, st := range app.Stores {
		if st.Name() != params.Store {
			continue
		}
		if err := st.Refresh(c.Request().Context()); err != nil {
			return errorResponse(c, err)
		}
		logger.Info("[Server] Cache refreshed", "store", st.Name())
		return c.JSON(http.StatusOK, map[string]string{"store": st.Name(), "status": "refreshed"})
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown store"})
}
