// Package goldenrecord persists golden records.
package goldenrecord

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

var goldenColumns = []string{
	"id",
	"company_name", "first_name", "last_name", "email", "phone",
	"address_line1", "address_line2", "city", "state", "postal_code", "country",
	"tax_id", "website",
	"source_count", "created_at", "updated_at",
}

// Repository handles golden record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new golden record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a golden record
func (r *Repository) Create(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Create")
	defer span.End()

	if golden.ID == "" {
		golden.ID = uuid.New().String()
	}
	golden.CreatedAt = time.Now().UTC()
	golden.UpdatedAt = golden.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("golden_records")
	sb.Cols(goldenColumns...)
	sb.Values(
		golden.ID,
		golden.CompanyName, golden.FirstName, golden.LastName, golden.Email, golden.Phone,
		golden.AddressLine1, golden.AddressLine2, golden.City, golden.State, golden.PostalCode, golden.Country,
		golden.TaxID, golden.Website,
		golden.SourceCount, golden.CreatedAt, golden.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"golden_record_id": golden.ID}).Error("Failed to create golden record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create golden record")
	}

	return golden, nil
}

// Get retrieves a golden record by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(goldenColumns...)
	sb.From("golden_records")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var golden models.GoldenRecord
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &golden, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("golden record %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get golden record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get golden record")
	}

	return &golden, nil
}

// List retrieves all golden records in creation order
func (r *Repository) List(ctx context.Context) ([]models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(goldenColumns...)
	sb.From("golden_records")
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	goldens := []models.GoldenRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &goldens, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list golden records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list golden records")
	}

	return goldens, nil
}

// Page retrieves a page of golden records in creation order. A non-empty
// search matches company name, email, first name, or last name.
func (r *Repository) Page(ctx context.Context, search string, limit, offset int) ([]models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Page")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(goldenColumns...)
	sb.From("golden_records")
	if search != "" {
		term := "%" + search + "%"
		sb.Where(sb.Or(
			sb.ILike("company_name", term),
			sb.ILike("email", term),
			sb.ILike("first_name", term),
			sb.ILike("last_name", term),
		))
	}
	sb.OrderBy("created_at ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	goldens := []models.GoldenRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &goldens, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to page golden records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list golden records")
	}

	return goldens, nil
}

// Update rewrites a golden record's merged fields and source count
func (r *Repository) Update(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Update")
	defer span.End()

	golden.UpdatedAt = time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("golden_records")
	assignments := []string{
		ub.Assign("source_count", golden.SourceCount),
		ub.Assign("updated_at", golden.UpdatedAt),
	}
	for _, field := range models.StandardFields {
		assignments = append(assignments, ub.Assign(field, golden.Field(field)))
	}
	ub.Set(assignments...)
	ub.Where(ub.Equal("id", golden.ID))

	query, args := ub.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"golden_record_id": golden.ID}).Error("Failed to update golden record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update golden record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update golden record")
	}
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("golden record %s not found", golden.ID))
	}

	return golden, nil
}

// Delete removes a golden record, used when consolidation folds it into
// another
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Delete")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("golden_records")
	db.Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"golden_record_id": id}).Error("Failed to delete golden record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete golden record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete golden record")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("golden record %s not found", id))
	}
	return nil
}

// Count returns the number of golden records
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "goldenrecord.Repository.Count")
	defer span.End()

	var count int
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM golden_records"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count golden records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count golden records")
	}
	return count, nil
}
