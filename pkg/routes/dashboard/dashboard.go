// Package dashboard exposes aggregate counts for the review UI.
package dashboard

import (
	"math"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	goldenrepo "github.com/rajeevhemai/unify-mdm/internal/repositories/goldenrecord"
	matchrepo "github.com/rajeevhemai/unify-mdm/internal/repositories/match"
	"github.com/rajeevhemai/unify-mdm/internal/repositories/record"
	"github.com/rajeevhemai/unify-mdm/internal/repositories/source"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

// Register registers dashboard routes
func Register(g *echo.Group) {
	g.GET("/stats", GetStats)
}

// GetStats returns the aggregate dashboard view. The duplicate rate is the
// percentage of records flagged as a match candidate, rounded to one decimal.
func GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, sourceRepo, err := ectoinject.GetContext[*source.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, recordRepo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, matchRepo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, goldenRepo, err := ectoinject.GetContext[*goldenrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sources, err := sourceRepo.Count(ctx)
	if err != nil {
		return err
	}
	records, err := recordRepo.Count(ctx)
	if err != nil {
		return err
	}
	matchStats, err := matchRepo.Stats(ctx)
	if err != nil {
		return err
	}
	goldens, err := goldenRepo.Count(ctx)
	if err != nil {
		return err
	}

	duplicateRate := 0.0
	if records > 0 {
		duplicateRate = math.Round(float64(matchStats.Total)/float64(records)*1000) / 10
	}

	return c.JSON(http.StatusOK, models.DashboardStats{
		TotalSources:         sources,
		TotalRecords:         records,
		TotalMatchesPending:  matchStats.Pending,
		TotalMatchesApproved: matchStats.Approved,
		TotalMatchesRejected: matchStats.Rejected,
		TotalMatchesMerged:   matchStats.Merged,
		TotalGoldenRecords:   goldens,
		DuplicateRate:        duplicateRate,
	})
}
