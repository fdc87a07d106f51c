package server

import (
	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	if app.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(app.Metrics.Handler()))
	}

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.POST("/analyze", routes.AnalyzeHandler, middleware.RequirePermission("analysis.create"))
	apiRoutes.POST("/analyses", routes.EnqueueAnalysisHandler, middleware.RequirePermission("analysis.create"))
	apiRoutes.GET("/analyses/:id", routes.GetAnalysisHandler, middleware.RequirePermission("analysis.view"))

	apiRoutes.GET("/relations/:word", routes.GetRelationsHandler, middleware.RequirePermission("relation.view"))

	apiRoutes.POST("/cache/:store/refresh", routes.RefreshCacheHandler, middleware.RequirePermission("cache.refresh"))
}
