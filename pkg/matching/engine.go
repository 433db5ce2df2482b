package matching

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	appcontext "github.com/rajeevhemai/unify-mdm/pkg/context"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// RecordStore is the record access the engine needs.
type RecordStore interface {
	List(ctx context.Context) ([]models.CustomerRecord, error)
}

// MatchStore is the match candidate access the engine needs. Get returns a
// NotFound error when the id does not exist. TransitionFromPending performs a
// compare-and-set against status 'pending' and reports whether a row moved.
type MatchStore interface {
	Get(ctx context.Context, id string) (*models.MatchCandidate, error)
	Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error)
	ListPairKeys(ctx context.Context) (map[string]string, error)
	TransitionFromPending(ctx context.Context, id, status string, notes, reviewedBy *string) (bool, error)
}

// EngineConfig contains configuration for the match engine. Every knob is
// explicit; nothing is baked into the algorithms.
type EngineConfig struct {
	DefaultThreshold float64            // Used when a run passes 0 (default: 0.75)
	BlockingKeys     []BlockingKey      // Candidate generation policy
	FieldWeights     map[string]float64 // Aggregate score weights
	MatchMethod      string             // Algorithm version tag stored on candidates
}

// DefaultConfig returns default engine configuration
func DefaultConfig() EngineConfig {
	return EngineConfig{
		DefaultThreshold: 0.75,
		BlockingKeys:     DefaultBlockingKeys(),
		FieldWeights:     DefaultFieldWeights,
		MatchMethod:      "rule_based_v1",
	}
}

// Engine is the match ledger: it runs matching to create pending candidates
// and owns the candidate review state machine.
type Engine struct {
	logger  ectologger.Logger
	records RecordStore
	matches MatchStore
	scorer  *Scorer
	config  EngineConfig
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, records RecordStore, matches MatchStore, config EngineConfig) *Engine {
	if config.MatchMethod == "" {
		config.MatchMethod = "rule_based_v1"
	}
	return &Engine{
		logger:  logger,
		records: records,
		matches: matches,
		scorer:  NewScorer(),
		config:  config,
	}
}

// Run generates candidate pairs in scope, scores them, and creates a pending
// match candidate for every pair at or above the threshold that has no match
// row yet. Pairs with an existing row in any status are skipped, which makes
// repeat runs idempotent and keeps rejected pairs rejected. Each created
// candidate commits independently, so cancelling the context between pairs
// only truncates the run. Returns the number of candidates created.
//
// A threshold of 0 means unset and falls back to the configured default; only
// values outside (0, 1] after that substitution are rejected.
func (e *Engine) Run(ctx context.Context, scope Scope, threshold float64, weights map[string]float64) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Run")
	defer span.End()

	if threshold == 0 {
		threshold = e.config.DefaultThreshold
	}
	if threshold <= 0 || threshold > 1 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "threshold must be in (0, 1]")
	}
	if scope.SourceID != nil && *scope.SourceID == "" {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "source_id must not be empty")
	}
	if len(weights) == 0 {
		weights = e.config.FieldWeights
	}
	for field := range weights {
		if !models.IsStandardField(field) {
			return 0, httperror.NewHTTPError(http.StatusBadRequest, "unknown field in weights: "+field)
		}
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"threshold": threshold,
		"scoped":    scope.SourceID != nil,
	})

	records, err := e.records.List(ctx)
	if err != nil {
		return 0, err
	}

	existing, err := e.matches.ListPairKeys(ctx)
	if err != nil {
		return 0, err
	}

	pairs := Candidates(records, scope, e.config.BlockingKeys)
	log.WithFields(map[string]any{
		"record_count":    len(records),
		"candidate_pairs": len(pairs),
	}).Debug("Generated candidate pairs")

	created := 0
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			log.WithFields(map[string]any{"created": created}).Warn("Matching run cancelled")
			return created, err
		}

		if _, ok := existing[pair.Key()]; ok {
			continue
		}

		overall, fieldScores := e.scorer.CompareRecords(pair.A, pair.B, weights)
		if overall < threshold {
			continue
		}

		scoresJSON, err := json.Marshal(fieldScores)
		if err != nil {
			return created, err
		}

		aID, bID := pair.A.ID, pair.B.ID
		if bID < aID {
			aID, bID = bID, aID
		}

		candidate := &models.MatchCandidate{
			RecordAID:    aID,
			RecordBID:    bID,
			OverallScore: overall,
			FieldScores:  scoresJSON,
			MatchMethod:  e.config.MatchMethod,
			Status:       models.MatchStatusPending,
		}

		if _, err := e.matches.Create(ctx, candidate); err != nil {
			if httperror.GetStatusCode(err) == http.StatusConflict {
				// A concurrent run inserted this pair first; its row stands.
				log.WithFields(map[string]any{"pair_key": pair.Key()}).Debug("Pair already created by a concurrent run")
				continue
			}
			return created, err
		}
		existing[pair.Key()] = models.MatchStatusPending
		created++
	}

	log.WithFields(map[string]any{"match_count": created}).Info("Matching run complete")
	return created, nil
}

// Review moves a pending candidate to approved or rejected. The transition is
// a compare-and-set: losing a race against a concurrent transition yields a
// conflict, never a silent overwrite. Terminal states stay terminal.
func (e *Engine) Review(ctx context.Context, id, status string, notes *string) (*models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Review")
	defer span.End()

	if status != models.MatchStatusApproved && status != models.MatchStatusRejected {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "status must be 'approved' or 'rejected'")
	}

	var reviewedBy *string
	if userID := appcontext.GetUserID(ctx); userID != "" {
		reviewedBy = &userID
	}

	moved, err := e.matches.TransitionFromPending(ctx, id, status, notes, reviewedBy)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Distinguish a missing candidate from one already decided.
		current, err := e.matches.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, httperror.NewHTTPError(http.StatusConflict, "match candidate is no longer pending (status: "+current.Status+")")
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id": id,
		"status":   status,
	}).Info("Reviewed match candidate")

	return e.matches.Get(ctx, id)
}
