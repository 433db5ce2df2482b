// Package match persists match candidates.
package match

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/rajeevhemai/unify-mdm/pkg/database"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

var matchColumns = []string{
	"id", "record_a_id", "record_b_id", "overall_score", "field_scores",
	"match_method", "status", "notes", "reviewed_at", "reviewed_by", "created_at",
}

// Repository handles match candidate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match candidate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a match candidate. The record pair is stored in
// lexicographic order, and the partial unique index on active pairs turns a
// duplicate insert into a conflict.
func (r *Repository) Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Create")
	defer span.End()

	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	if candidate.RecordBID < candidate.RecordAID {
		candidate.RecordAID, candidate.RecordBID = candidate.RecordBID, candidate.RecordAID
	}
	candidate.CreatedAt = time.Now().UTC()
	if candidate.Status == "" {
		candidate.Status = models.MatchStatusPending
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("match_candidates")
	sb.Cols(matchColumns...)
	sb.Values(
		candidate.ID, candidate.RecordAID, candidate.RecordBID, candidate.OverallScore, candidate.FieldScores,
		candidate.MatchMethod, candidate.Status, candidate.Notes, candidate.ReviewedAt, candidate.ReviewedBy, candidate.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, httperror.NewHTTPError(http.StatusConflict, "an active match already exists for this record pair")
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": candidate.ID}).Error("Failed to create match candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match candidate")
	}

	return candidate, nil
}

// Get retrieves a match candidate by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("match_candidates")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var candidate models.MatchCandidate
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &candidate, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match candidate %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match candidate")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match candidate")
	}

	return &candidate, nil
}

// GetExpanded retrieves a match candidate with both record snapshots
func (r *Repository) GetExpanded(ctx context.Context, id string) (*models.MatchCandidateExpanded, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetExpanded")
	defer span.End()

	candidate, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	expanded := &models.MatchCandidateExpanded{MatchCandidate: *candidate}

	querier := database.FromContext(ctx, r.db)
	for _, side := range []struct {
		recordID string
		dest     **models.CustomerRecord
	}{
		{candidate.RecordAID, &expanded.RecordA},
		{candidate.RecordBID, &expanded.RecordB},
	} {
		sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
		sb.Select("*")
		sb.From("customer_records")
		sb.Where(sb.Equal("id", side.recordID))

		query, args := sb.Build()
		var record models.CustomerRecord
		if err := querier.GetContext(ctx, &record, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"record_id": side.recordID}).Error("Failed to load match candidate record")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load match candidate records")
		}
		*side.dest = &record
	}

	return expanded, nil
}

// List retrieves match candidates, optionally filtered by status, highest
// score first
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("match_candidates")
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("overall_score DESC", "created_at DESC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	candidates := []models.MatchCandidate{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match candidates")
	}

	return candidates, nil
}

// ListExpanded retrieves match candidates with both record snapshots attached,
// loading all referenced records in one query.
func (r *Repository) ListExpanded(ctx context.Context, status string, limit, offset int) ([]models.MatchCandidateExpanded, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListExpanded")
	defer span.End()

	candidates, err := r.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}

	expanded := make([]models.MatchCandidateExpanded, 0, len(candidates))
	if len(candidates) == 0 {
		return expanded, nil
	}

	recordIDs := make([]any, 0, len(candidates)*2)
	seen := map[string]bool{}
	for i := range candidates {
		for _, id := range []string{candidates[i].RecordAID, candidates[i].RecordBID} {
			if !seen[id] {
				seen[id] = true
				recordIDs = append(recordIDs, id)
			}
		}
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("customer_records")
	sb.Where(sb.In("id", recordIDs...))

	query, args := sb.Build()
	records := []models.CustomerRecord{}
	if err := database.FromContext(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load match candidate records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load match candidate records")
	}

	byID := make(map[string]*models.CustomerRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	for i := range candidates {
		expanded = append(expanded, models.MatchCandidateExpanded{
			MatchCandidate: candidates[i],
			RecordA:        byID[candidates[i].RecordAID],
			RecordB:        byID[candidates[i].RecordBID],
		})
	}

	return expanded, nil
}

// ListPairKeys returns every stored pair key with its status, rejected rows
// included. Matching runs use it to skip pairs that already have a row.
func (r *Repository) ListPairKeys(ctx context.Context) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListPairKeys")
	defer span.End()

	rows, err := database.FromContext(ctx, r.db).QueryxContext(ctx, "SELECT record_a_id, record_b_id, status FROM match_candidates")
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match pair keys")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match pair keys")
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var a, b, status string
		if err := rows.Scan(&a, &b, &status); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to scan match pair key")
		}
		keys[models.PairKey(a, b)] = status
	}
	if err := rows.Err(); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match pair keys")
	}

	return keys, nil
}

// TransitionFromPending moves a pending candidate to the given status,
// stamping the review metadata. Returns false when no row was pending with
// that id (missing or already decided).
func (r *Repository) TransitionFromPending(ctx context.Context, id, status string, notes, reviewedBy *string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.TransitionFromPending")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_candidates")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("notes", notes),
		ub.Assign("reviewed_at", time.Now().UTC()),
		ub.Assign("reviewed_by", reviewedBy),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", models.MatchStatusPending),
	)

	return r.transition(ctx, ub, id, status)
}

// TransitionToMerged moves an open candidate to merged. Pending and approved
// rows both qualify. Returns false when no open row had that id.
func (r *Repository) TransitionToMerged(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.TransitionToMerged")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_candidates")
	ub.Set(ub.Assign("status", models.MatchStatusMerged))
	ub.Where(
		ub.Equal("id", id),
		ub.In("status", models.MatchStatusPending, models.MatchStatusApproved),
	)

	return r.transition(ctx, ub, id, models.MatchStatusMerged)
}

func (r *Repository) transition(ctx context.Context, ub *sqlbuilder.UpdateBuilder, id, status string) (bool, error) {
	query, args := ub.Build()
	result, err := database.FromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"match_id": id,
			"status":   status,
		}).Error("Failed to transition match candidate")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match candidate")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match candidate")
	}
	return rows > 0, nil
}

// Stats returns candidate counts by status
func (r *Repository) Stats(ctx context.Context) (*models.MatchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Stats")
	defer span.End()

	query := strings.TrimSpace(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
			COUNT(*) FILTER (WHERE status = 'merged') AS merged
		FROM match_candidates
	`)

	var stats models.MatchStats
	if err := database.FromContext(ctx, r.db).GetContext(ctx, &stats, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match stats")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match stats")
	}

	return &stats, nil
}
