package routes

import (
	"encoding/json"
	"net/http"

	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AnalyzeHandler runs the pipeline synchronously and returns the analysis.
// With persist set the analysis is stored as well.
func AnalyzeHandler(c echo.Context) error {
	type analyzeBody struct {
		Text    string `json:"text" validate:"required"`
		Persist bool   `json:"persist"`
	}

	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	analysis, err := app.Graph.Analyze(ctx, data.Text)
	if app.Metrics != nil {
		app.Metrics.Analysis("http", err)
	}
	if err != nil {
		return errorResponse(c, err)
	}

	if data.Persist {
		if err := app.Storage.SaveAnalysis(ctx, analysis); err != nil {
			return errorResponse(c, err)
		}
		logger.Debug("[Server] Analysis stored", "id", analysis.ID)
	}

	return c.JSON(http.StatusOK, analysis)
}

// EnqueueAnalysisHandler hands the sentence to the worker and answers with
// the id the analysis will be stored under.
func EnqueueAnalysisHandler(c echo.Context) error {
	type enqueueBody struct {
		Text string `json:"text" validate:"required"`
	}

	data := new(enqueueBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Queue not configured"})
	}

	id, err := gonanoid.New()
	if err != nil {
		return errorResponse(c, err)
	}
	msg, err := json.Marshal(queue.AnalyzeMsg{ID: id, Text: data.Text})
	if err != nil {
		return errorResponse(c, err)
	}
	if err := queue.PublishFIFO(app.Queue, queue.AnalyzeQueue, msg); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
}
