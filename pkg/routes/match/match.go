// Package match exposes matching runs and candidate review.
package match

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	matchrepo "github.com/rajeevhemai/unify-mdm/internal/repositories/match"
	"github.com/rajeevhemai/unify-mdm/pkg/matching"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

var validate = validator.New()

// Register registers matching routes
func Register(g *echo.Group) {
	g.POST("/run", RunMatching)
	g.GET("", ListMatches)
	g.GET("/stats", GetMatchStats)
	g.GET("/:id", GetMatch)
	g.POST("/:id/review", ReviewMatch)
}

// RunMatching scores candidate pairs and records pending matches. An optional
// source_id query parameter scopes the run to one source's records against
// the rest of the pool.
func RunMatching(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.RunMatchingRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	scope := matching.ScopeAll()
	if sourceID := c.QueryParam("source_id"); sourceID != "" {
		scope = matching.ScopeSource(sourceID)
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := engine.Run(ctx, scope, req.Threshold, req.FieldWeights)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"match_count": created})
}

// ListMatches lists match candidates, optionally filtered by status
func ListMatches(c echo.Context) error {
	ctx := c.Request().Context()

	status := c.QueryParam("status")
	if status != "" && !models.ValidMatchStatus(status) {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown status: "+status)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	candidates, err := repo.ListExpanded(ctx, status, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, candidates)
}

// GetMatchStats returns candidate counts by status
func GetMatchStats(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// GetMatch gets a match candidate with both record snapshots
func GetMatch(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	expanded, err := repo.GetExpanded(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, expanded)
}

// ReviewMatch approves or rejects a pending match candidate
func ReviewMatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ReviewMatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	candidate, err := engine.Review(ctx, c.Param("id"), req.Status, req.Notes)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, candidate)
}
