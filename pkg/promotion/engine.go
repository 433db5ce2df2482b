// Package promotion turns unmatched customer records into singleton golden records.
package promotion

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/rajeevhemai/unify-mdm/pkg/database"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// RecordStore is the record access the promotion engine needs. ListPromotable
// returns records with no golden record and no pending or approved match.
type RecordStore interface {
	ListPromotable(ctx context.Context) ([]models.CustomerRecord, error)
	AssignGolden(ctx context.Context, recordID, goldenID string) error
}

// GoldenStore is the golden record access the promotion engine needs.
type GoldenStore interface {
	Create(ctx context.Context, golden *models.GoldenRecord) (*models.GoldenRecord, error)
}

// EventEmitter publishes promotion events.
type EventEmitter interface {
	GoldenRecordPromoted(ctx context.Context, golden *models.GoldenRecord, recordID string)
}

// GraphProjector mirrors promoted golden records into the provenance graph.
type GraphProjector interface {
	ProjectGoldenRecord(ctx context.Context, golden *models.GoldenRecord, records []models.CustomerRecord) error
}

// Engine promotes records that survived matching without a duplicate.
type Engine struct {
	logger  ectologger.Logger
	tx      database.TxRunner
	records RecordStore
	goldens GoldenStore
	emitter EventEmitter
	graph   GraphProjector
}

// NewEngine creates a new promotion engine. Emitter and graph are optional.
func NewEngine(logger ectologger.Logger, tx database.TxRunner, records RecordStore, goldens GoldenStore, emitter EventEmitter, graph GraphProjector) *Engine {
	return &Engine{
		logger:  logger,
		tx:      tx,
		records: records,
		goldens: goldens,
		emitter: emitter,
		graph:   graph,
	}
}

// PromoteUnmatched creates a singleton golden record for every record that has
// no golden record and no open match. Records with a pending or approved match
// are left for review, so promotion never races the merge path. Each record
// promotes in its own transaction; a repeat run finds nothing left to promote.
// Returns the number of records promoted.
func (e *Engine) PromoteUnmatched(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "promotion.Engine.PromoteUnmatched")
	defer span.End()

	log := e.logger.WithContext(ctx)

	records, err := e.records.ListPromotable(ctx)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			log.WithFields(map[string]any{"promoted": promoted}).Warn("Promotion run cancelled")
			return promoted, err
		}

		record := &records[i]
		var golden *models.GoldenRecord

		err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
			golden = singletonGolden(record)
			created, err := e.goldens.Create(ctx, golden)
			if err != nil {
				return err
			}
			golden = created
			return e.records.AssignGolden(ctx, record.ID, golden.ID)
		})
		if err != nil {
			return promoted, err
		}

		if e.emitter != nil {
			e.emitter.GoldenRecordPromoted(ctx, golden, record.ID)
		}
		if e.graph != nil {
			if err := e.graph.ProjectGoldenRecord(ctx, golden, []models.CustomerRecord{*record}); err != nil {
				log.WithError(err).WithFields(map[string]any{
					"golden_record_id": golden.ID,
				}).Warn("Failed to project promoted golden record to graph")
			}
		}
		promoted++
	}

	log.WithFields(map[string]any{"promoted": promoted}).Info("Promotion run complete")
	return promoted, nil
}

// singletonGolden copies a record's standard fields into a fresh golden record.
func singletonGolden(record *models.CustomerRecord) *models.GoldenRecord {
	golden := &models.GoldenRecord{SourceCount: 1}
	for _, field := range models.StandardFields {
		golden.SetField(field, record.Field(field))
	}
	return golden
}
