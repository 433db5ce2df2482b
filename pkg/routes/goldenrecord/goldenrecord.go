// Package goldenrecord exposes golden record reads, merging, promotion, and export.
package goldenrecord

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	goldenrepo "github.com/rajeevhemai/unify-mdm/internal/repositories/goldenrecord"
	"github.com/rajeevhemai/unify-mdm/internal/repositories/record"
	"github.com/rajeevhemai/unify-mdm/pkg/export"
	"github.com/rajeevhemai/unify-mdm/pkg/merging"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/promotion"
)

var validate = validator.New()

// Register registers golden record routes
func Register(g *echo.Group) {
	g.GET("", ListGoldenRecords)
	g.GET("/count", CountGoldenRecords)
	g.GET("/export", ExportGoldenRecords)
	g.GET("/:id", GetGoldenRecord)
	g.POST("/merge", MergeMatch)
	g.POST("/promote-unmatched", PromoteUnmatched)
}

// ListGoldenRecords lists golden records in creation order
func ListGoldenRecords(c echo.Context) error {
	ctx := c.Request().Context()

	search := c.QueryParam("search")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, repo, err := ectoinject.GetContext[*goldenrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	goldens, err := repo.Page(ctx, search, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, goldens)
}

// CountGoldenRecords returns the golden record total
func CountGoldenRecords(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*goldenrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"count": count})
}

// GetGoldenRecord gets a golden record with its contributing source records
func GetGoldenRecord(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*goldenrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, recordRepo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	golden, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	members, err := recordRepo.ListByGolden(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.GoldenRecordExpanded{
		GoldenRecord:  *golden,
		SourceRecords: members,
	})
}

// MergeMatch folds an open match into a golden record
func MergeMatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for field := range req.SurvivingValues {
		if !models.IsStandardField(field) {
			return httperror.NewHTTPError(http.StatusBadRequest, "unknown field in surviving_values: "+field)
		}
	}

	ctx, engine, err := ectoinject.GetContext[*merging.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	golden, err := engine.Merge(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, golden)
}

// PromoteUnmatched creates singleton golden records for records with no
// golden record and no open match
func PromoteUnmatched(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, engine, err := ectoinject.GetContext[*promotion.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	promoted, err := engine.PromoteUnmatched(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"count": promoted})
}

// ExportGoldenRecords streams the golden record set as CSV
func ExportGoldenRecords(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, exporter, err := ectoinject.GetContext[*export.Exporter](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="golden_records.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	if _, err := exporter.Write(ctx, c.Response()); err != nil {
		return err
	}
	return nil
}
