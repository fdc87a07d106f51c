package middleware

import (
	"github.com/OFFIS-RIT/lexgraph/internal/metrics"
	"github.com/OFFIS-RIT/lexgraph/internal/queue"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

// App holds the shared services every request handler reaches through
// AppContext. Queue and Key are nil when no broker or JWKS endpoint is
// configured.
type App struct {
	Graph        *graph.GraphClient
	Storage      store.GraphStorage
	Relations    lexicon.RelationProvider
	Stores       []lexicon.Refresher
	Metrics      *metrics.Metrics
	Queue        queue.Publisher
	Key          keyfunc.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
