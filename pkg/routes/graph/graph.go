// Package graph exposes provenance queries against the graph projection.
package graph

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	graphpkg "github.com/rajeevhemai/unify-mdm/pkg/graph"
)

// Register registers graph routes
func Register(g *echo.Group) {
	g.GET("/provenance/:goldenId", GetProvenance)
}

// GetProvenance returns a golden record's provenance cluster from the graph
// projection: the golden node plus every source record it was derived from.
func GetProvenance(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, svc, err := ectoinject.GetContext[*graphpkg.QueryService](ctx)
	if err != nil || svc == nil {
		// 503 because the graph projection is optional and can be disabled.
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph projection unavailable")
	}

	result, err := svc.Provenance(ctx, c.Param("goldenId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
