// Package merging implements golden record creation and match merging.
package merging

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/rajeevhemai/unify-mdm/pkg/database"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// MatchStore is the match candidate access the merge engine needs.
type MatchStore interface {
	GetExpanded(ctx context.Context, id string) (*models.MatchCandidateExpanded, error)
	TransitionToMerged(ctx context.Context, id string) (bool, error)
}

// RecordStore is the customer record access the merge engine needs.
type RecordStore interface {
	ListByGolden(ctx context.Context, goldenID string) ([]models.CustomerRecord, error)
	AssignGolden(ctx context.Context, recordID, goldenID string) error
	RelinkGolden(ctx context.Context, fromGoldenID, toGoldenID string) (int, error)
}

// GoldenStore is the golden record access the merge engine needs.
type GoldenStore interface {
	Get(ctx context.Context, id string) (*models.GoldenRecord, error)
	Create(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error)
	Update(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error)
	Delete(ctx context.Context, id string) error
}

// EventEmitter publishes golden record lifecycle events. Implementations must
// tolerate a nil receiver check at the call site; the engine works without one.
type EventEmitter interface {
	GoldenRecordCreated(ctx context.Context, golden *models.GoldenRecord)
	GoldenRecordUpdated(ctx context.Context, golden *models.GoldenRecord)
	GoldenRecordsConsolidated(ctx context.Context, kept *models.GoldenRecord, removedID string)
}

// GraphProjector mirrors golden record provenance into the graph store.
type GraphProjector interface {
	ProjectGoldenRecord(ctx context.Context, golden *models.GoldenRecord, records []models.CustomerRecord) error
	RemoveGoldenRecord(ctx context.Context, goldenID string) error
}

// Engine merges open matches into golden records
type Engine struct {
	logger  ectologger.Logger
	tx      database.TxRunner
	matches MatchStore
	records RecordStore
	goldens GoldenStore
	emitter EventEmitter
	graph   GraphProjector
}

// NewEngine creates a new merge engine. Emitter and graph are optional.
func NewEngine(
	logger ectologger.Logger,
	tx database.TxRunner,
	matches MatchStore,
	records RecordStore,
	goldens GoldenStore,
	emitter EventEmitter,
	graph GraphProjector,
) *Engine {
	return &Engine{
		logger:  logger,
		tx:      tx,
		matches: matches,
		records: records,
		goldens: goldens,
		emitter: emitter,
		graph:   graph,
	}
}

// Merge folds an open match into a golden record and marks the match merged.
// Both pending and approved matches merge; an explicit approval step is not
// required. All record, golden, and match writes happen in one transaction.
//
// Behavior by the pair's current golden membership:
//   - neither record has a golden record: create one from the pair
//   - exactly one does: absorb the other record into it
//   - both share one: nothing to consolidate, the match just closes
//   - each has its own: consolidate both clusters into the older golden
//
// SurvivingValues in the request pin reviewer-chosen field literals; all
// other fields follow the automatic survivorship policy.
func (e *Engine) Merge(ctx context.Context, req *models.MergeRequest) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"match_id": req.MatchID,
	})

	var golden *models.GoldenRecord
	var removedGoldenID string
	var created, consolidated bool

	err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
		match, err := e.matches.GetExpanded(ctx, req.MatchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusPending && match.Status != models.MatchStatusApproved {
			return httperror.NewHTTPError(http.StatusConflict, "match is already decided (status: "+match.Status+")")
		}

		a, b := match.RecordA, match.RecordB

		switch {
		case a.GoldenRecordID == nil && b.GoldenRecordID == nil:
			golden, err = e.createGolden(ctx, []*models.CustomerRecord{a, b}, req.SurvivingValues)
			created = true

		case a.GoldenRecordID != nil && b.GoldenRecordID == nil:
			golden, err = e.absorbRecord(ctx, *a.GoldenRecordID, b, req.SurvivingValues)

		case a.GoldenRecordID == nil && b.GoldenRecordID != nil:
			golden, err = e.absorbRecord(ctx, *b.GoldenRecordID, a, req.SurvivingValues)

		case *a.GoldenRecordID == *b.GoldenRecordID:
			golden, err = e.goldens.Get(ctx, *a.GoldenRecordID)

		default:
			golden, removedGoldenID, err = e.consolidate(ctx, *a.GoldenRecordID, *b.GoldenRecordID, req.SurvivingValues)
			consolidated = true
		}
		if err != nil {
			return err
		}

		moved, err := e.matches.TransitionToMerged(ctx, req.MatchID)
		if err != nil {
			return err
		}
		if !moved {
			return httperror.NewHTTPError(http.StatusConflict, "match candidate is no longer open")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log = log.WithFields(map[string]any{
		"golden_record_id": golden.ID,
		"source_count":     golden.SourceCount,
	})
	log.Info("Merged match into golden record")

	if e.emitter != nil {
		switch {
		case consolidated:
			e.emitter.GoldenRecordsConsolidated(ctx, golden, removedGoldenID)
		case created:
			e.emitter.GoldenRecordCreated(ctx, golden)
		default:
			e.emitter.GoldenRecordUpdated(ctx, golden)
		}
	}

	e.project(ctx, golden, removedGoldenID, log)

	return golden, nil
}

// createGolden builds a new golden record from the given source records and
// points each record at it.
func (e *Engine) createGolden(ctx context.Context, records []*models.CustomerRecord, overrides map[string]string) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.createGolden")
	defer span.End()

	golden := &models.GoldenRecord{SourceCount: len(records)}
	applySurvivorship(golden, records, overrides, false)

	golden, err := e.goldens.Create(ctx, golden)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if err := e.records.AssignGolden(ctx, r.ID, golden.ID); err != nil {
			return nil, err
		}
	}
	return golden, nil
}

// absorbRecord folds one unassigned record into an existing golden record.
// The golden's settled values participate in survivorship as the senior side.
func (e *Engine) absorbRecord(ctx context.Context, goldenID string, record *models.CustomerRecord, overrides map[string]string) (*models.GoldenRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.absorbRecord")
	defer span.End()

	golden, err := e.goldens.Get(ctx, goldenID)
	if err != nil {
		return nil, err
	}

	applySurvivorship(golden, []*models.CustomerRecord{record}, overrides, true)
	golden.SourceCount++

	if err := e.records.AssignGolden(ctx, record.ID, golden.ID); err != nil {
		return nil, err
	}
	return e.goldens.Update(ctx, golden)
}

// consolidate merges two golden record clusters into one. The older golden
// survives so its id stays stable for downstream consumers; every record of
// the younger cluster is relinked and the younger golden is deleted. Returns
// the surviving golden and the removed golden's id.
func (e *Engine) consolidate(ctx context.Context, goldenAID, goldenBID string, overrides map[string]string) (*models.GoldenRecord, string, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.consolidate")
	defer span.End()

	goldenA, err := e.goldens.Get(ctx, goldenAID)
	if err != nil {
		return nil, "", err
	}
	goldenB, err := e.goldens.Get(ctx, goldenBID)
	if err != nil {
		return nil, "", err
	}

	keep, drop := goldenA, goldenB
	if goldenB.CreatedAt.Before(goldenA.CreatedAt) {
		keep, drop = goldenB, goldenA
	}

	moved, err := e.records.RelinkGolden(ctx, drop.ID, keep.ID)
	if err != nil {
		return nil, "", err
	}
	if moved == 0 {
		return nil, "", httperror.NewHTTPError(http.StatusInternalServerError, "golden record "+drop.ID+" had no member records to relink")
	}

	members, err := e.records.ListByGolden(ctx, keep.ID)
	if err != nil {
		return nil, "", err
	}
	if len(members) != keep.SourceCount+moved {
		return nil, "", httperror.NewHTTPError(http.StatusInternalServerError, "golden record consolidation left an inconsistent cluster")
	}

	memberPtrs := make([]*models.CustomerRecord, len(members))
	for i := range members {
		memberPtrs[i] = &members[i]
	}
	applySurvivorship(keep, memberPtrs, overrides, true)
	keep.SourceCount = len(members)

	if _, err := e.goldens.Update(ctx, keep); err != nil {
		return nil, "", err
	}
	if err := e.goldens.Delete(ctx, drop.ID); err != nil {
		return nil, "", err
	}
	return keep, drop.ID, nil
}

// project mirrors the merge outcome into the graph store. Projection failures
// are logged, never surfaced; the relational store is the source of truth.
func (e *Engine) project(ctx context.Context, golden *models.GoldenRecord, removedGoldenID string, log ectologger.Logger) {
	if e.graph == nil {
		return
	}

	members, err := e.records.ListByGolden(ctx, golden.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to load members for graph projection")
		return
	}
	if err := e.graph.ProjectGoldenRecord(ctx, golden, members); err != nil {
		log.WithError(err).Warn("Failed to project golden record to graph")
	}
	if removedGoldenID != "" {
		if err := e.graph.RemoveGoldenRecord(ctx, removedGoldenID); err != nil {
			log.WithError(err).Warn("Failed to remove consolidated golden record from graph")
		}
	}
}
