// Package source persists data sources.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/rajeevhemai/unify-mdm/pkg/database"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// Repository handles data source persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new data source repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new data source
func (r *Repository) Create(ctx context.Context, source *models.DataSource) (*models.DataSource, error) {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.Create")
	defer span.End()

	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	source.UploadedAt = time.Now().UTC()
	if source.Status == "" {
		source.Status = models.DataSourceStatusUploaded
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("data_sources")
	sb.Cols("id", "name", "file_name", "file_type", "record_count", "status", "uploaded_at")
	sb.Values(source.ID, source.Name, source.FileName, source.FileType, source.RecordCount, source.Status, source.UploadedAt)

	query, args := sb.Build()
	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": source.ID}).Error("Failed to create data source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create data source")
	}

	return source, nil
}

// Get retrieves a data source by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.DataSource, error) {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "file_name", "file_type", "record_count", "status", "uploaded_at")
	sb.From("data_sources")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var source models.DataSource
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &source, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("data source %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get data source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get data source")
	}

	return &source, nil
}

// List retrieves all data sources, newest first
func (r *Repository) List(ctx context.Context) ([]models.DataSource, error) {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "file_name", "file_type", "record_count", "status", "uploaded_at")
	sb.From("data_sources")
	sb.OrderBy("uploaded_at DESC")

	query, args := sb.Build()
	sources := []models.DataSource{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &sources, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list data sources")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list data sources")
	}

	return sources, nil
}

// SetStatus updates a source's processing status and record count
func (r *Repository) SetStatus(ctx context.Context, id, status string, recordCount int) error {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.SetStatus")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("data_sources")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("record_count", recordCount),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": id}).Error("Failed to update data source status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update data source")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update data source")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("data source %s not found", id))
	}
	return nil
}

// Count returns the number of data sources
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "source.Repository.Count")
	defer span.End()

	var count int
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM data_sources"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count data sources")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count data sources")
	}
	return count, nil
}
