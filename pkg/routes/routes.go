// Package routes wires the API surface onto an echo instance.
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/rajeevhemai/unify-mdm/pkg/middleware"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/dashboard"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/goldenrecord"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/graph"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/health"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/match"
	"github.com/rajeevhemai/unify-mdm/pkg/routes/source"
)

// RegisterAll mounts middleware, health checks, and every resource group
// under /api/v1.
func RegisterAll(e *echo.Echo, logger ectologger.Logger, checker *health.Checker, appName string) {
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(appName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	source.Register(api.Group("/sources"))
	match.Register(api.Group("/matches"))
	goldenrecord.Register(api.Group("/golden-records"))
	graph.Register(api.Group("/graph"))
	dashboard.Register(api.Group("/dashboard"))
}
