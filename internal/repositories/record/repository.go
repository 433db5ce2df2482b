// Package record persists customer records.
package record

import (
	"context"
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

var recordColumns = []string{
	"id", "source_id", "source_row_number",
	"company_name", "first_name", "last_name", "email", "phone",
	"address_line1", "address_line2", "city", "state", "postal_code", "country",
	"tax_id", "website",
	"raw_data", "golden_record_id", "created_at",
}

// Repository handles customer record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts imported records in one statement
func (r *Repository) CreateBatch(ctx context.Context, records []*models.CustomerRecord) error {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.CreateBatch")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("customer_records")
	sb.Cols(recordColumns...)

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		rec.CreatedAt = now
		sb.Values(
			rec.ID, rec.SourceID, rec.SourceRowNumber,
			rec.CompanyName, rec.FirstName, rec.LastName, rec.Email, rec.Phone,
			rec.AddressLine1, rec.AddressLine2, rec.City, rec.State, rec.PostalCode, rec.Country,
			rec.TaxID, rec.Website,
			rec.RawData, rec.GoldenRecordID, rec.CreatedAt,
		)
	}

	query, args := sb.Build()
	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create customer records batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create customer records")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Debug("Created customer records batch")
	return nil
}

// Get retrieves a customer record by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.CustomerRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From("customer_records")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var record models.CustomerRecord
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("customer record %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get customer record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customer record")
	}

	return &record, nil
}

// List retrieves all customer records in import order
func (r *Repository) List(ctx context.Context) ([]models.CustomerRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From("customer_records")
	sb.OrderBy("created_at ASC", "source_row_number ASC")

	query, args := sb.Build()
	records := []models.CustomerRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customer records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer records")
	}

	return records, nil
}

// ListBySource retrieves a source's records in row order
func (r *Repository) ListBySource(ctx context.Context, sourceID string) ([]models.CustomerRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.ListBySource")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From("customer_records")
	sb.Where(sb.Equal("source_id", sourceID))
	sb.OrderBy("source_row_number ASC")

	query, args := sb.Build()
	records := []models.CustomerRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customer records by source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer records")
	}

	return records, nil
}

// ListByGolden retrieves the records contributing to a golden record
func (r *Repository) ListByGolden(ctx context.Context, goldenID string) ([]models.CustomerRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.ListByGolden")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From("customer_records")
	sb.Where(sb.Equal("golden_record_id", goldenID))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	records := []models.CustomerRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customer records by golden record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customer records")
	}

	return records, nil
}

// ListPromotable retrieves records with no golden record and no open match.
// A pending or approved match keeps a record out of promotion until review
// settles it; rejected and merged matches do not block.
func (r *Repository) ListPromotable(ctx context.Context) ([]models.CustomerRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.ListPromotable")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s FROM customer_records cr
		WHERE cr.golden_record_id IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM match_candidates mc
			WHERE (mc.record_a_id = cr.id OR mc.record_b_id = cr.id)
			AND mc.status IN ('pending', 'approved')
		)
		ORDER BY cr.created_at ASC, cr.source_row_number ASC
	`, prefixedColumns("cr"))

	records := []models.CustomerRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &records, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list promotable customer records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list promotable customer records")
	}

	return records, nil
}

// AssignGolden points a record at its golden record
func (r *Repository) AssignGolden(ctx context.Context, recordID, goldenID string) error {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.AssignGolden")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("customer_records")
	ub.Set(ub.Assign("golden_record_id", goldenID))
	ub.Where(ub.Equal("id", recordID))

	query, args := ub.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"record_id": recordID}).Error("Failed to assign golden record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to assign golden record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to assign golden record")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("customer record %s not found", recordID))
	}
	return nil
}

// RelinkGolden moves every record of one golden record to another, returning
// the number of records moved
func (r *Repository) RelinkGolden(ctx context.Context, fromGoldenID, toGoldenID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.RelinkGolden")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("customer_records")
	ub.Set(ub.Assign("golden_record_id", toGoldenID))
	ub.Where(ub.Equal("golden_record_id", fromGoldenID))

	query, args := ub.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"from_golden_record_id": fromGoldenID,
			"to_golden_record_id":   toGoldenID,
		}).Error("Failed to relink golden record members")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to relink golden record members")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to relink golden record members")
	}
	return int(rows), nil
}

// Count returns the number of customer records
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Count")
	defer span.End()

	var count int
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &count, "SELECT COUNT(*) FROM customer_records"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count customer records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count customer records")
	}
	return count, nil
}

func prefixedColumns(alias string) string {
	cols := ""
	for i, c := range recordColumns {
		if i > 0 {
			cols += ", "
		}
		cols += alias + "." + c
	}
	return cols
}
