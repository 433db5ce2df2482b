// Package source exposes data source registration and record import.
package source

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rajeevhemai/unify-mdm/internal/repositories/record"
	"github.com/rajeevhemai/unify-mdm/internal/repositories/source"
	"github.com/rajeevhemai/unify-mdm/pkg/database"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

var validate = validator.New()

// Register registers data source routes
func Register(g *echo.Group) {
	g.POST("", CreateDataSource)
	g.GET("", ListDataSources)
	g.GET("/:id", GetDataSource)
	g.POST("/:id/records", ImportRecords)
	g.GET("/:id/records", ListRecords)
}

// CreateDataSource registers a new data source
func CreateDataSource(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateDataSourceRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*source.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := repo.Create(ctx, &models.DataSource{
		Name:     req.Name,
		FileName: req.FileName,
		FileType: req.FileType,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// ListDataSources lists all data sources
func ListDataSources(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*source.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	sources, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sources)
}

// GetDataSource gets a data source by ID
func GetDataSource(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*source.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	src, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, src)
}

// ImportRecords bulk-loads mapped records into a source. The whole batch and
// the source status update commit as one transaction.
func ImportRecords(c echo.Context) error {
	ctx := c.Request().Context()
	sourceID := c.Param("id")

	var req models.ImportRecordsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records := make([]*models.CustomerRecord, 0, len(req.Records))
	for _, row := range req.Records {
		rec := &models.CustomerRecord{
			SourceID:        sourceID,
			SourceRowNumber: row.SourceRowNumber,
		}
		for field, value := range row.Fields {
			if !models.IsStandardField(field) {
				return httperror.NewHTTPError(http.StatusBadRequest, "unknown field: "+field)
			}
			rec.SetField(field, value)
		}
		if row.RawData != nil {
			raw, err := json.Marshal(row.RawData)
			if err != nil {
				return httperror.NewHTTPError(http.StatusBadRequest, "invalid raw_data")
			}
			rec.RawData = raw
		}
		records = append(records, rec)
	}

	ctx, sourceRepo, err := ectoinject.GetContext[*source.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, recordRepo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, tx, err := ectoinject.GetContext[database.TxRunner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	src, err := sourceRepo.Get(ctx, sourceID)
	if err != nil {
		return err
	}

	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := recordRepo.CreateBatch(ctx, records); err != nil {
			return err
		}
		return sourceRepo.SetStatus(ctx, sourceID, models.DataSourceStatusProcessed, src.RecordCount+len(records))
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"source_id":      sourceID,
		"records_loaded": len(records),
	})
}

// ListRecords lists a source's imported records
func ListRecords(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListBySource(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
