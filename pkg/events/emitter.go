// Package events handles event emission for golden record lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/rajeevhemai/unify-mdm/pkg/kafka"
	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// Emitter publishes golden record lifecycle events. Emission is best effort:
// failures are logged and swallowed so a broker outage never fails a merge.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// GoldenRecordCreated emits a golden_record.created event
func (e *Emitter) GoldenRecordCreated(ctx context.Context, golden *models.GoldenRecord) {
	e.emit(ctx, "golden_record.created", golden, "")
}

// GoldenRecordUpdated emits a golden_record.updated event
func (e *Emitter) GoldenRecordUpdated(ctx context.Context, golden *models.GoldenRecord) {
	e.emit(ctx, "golden_record.updated", golden, "")
}

// GoldenRecordsConsolidated emits a golden_record.consolidated event naming
// the golden record that was folded away.
func (e *Emitter) GoldenRecordsConsolidated(ctx context.Context, kept *models.GoldenRecord, removedID string) {
	e.emit(ctx, "golden_record.consolidated", kept, removedID)
}

// GoldenRecordPromoted emits a golden_record.promoted event for a singleton.
func (e *Emitter) GoldenRecordPromoted(ctx context.Context, golden *models.GoldenRecord, recordID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.GoldenRecordPromoted")
	defer span.End()

	data, _ := json.Marshal(golden)
	event := &kafka.GoldenRecordEvent{
		EventType:       "golden_record.promoted",
		GoldenRecordID:  golden.ID,
		SourceRecordIDs: []string{recordID},
		Data:            data,
		SourceCount:     golden.SourceCount,
	}

	if err := e.producer.PublishGoldenRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit golden_record.promoted event")
	}
}

func (e *Emitter) emit(ctx context.Context, eventType string, golden *models.GoldenRecord, removedID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	data, _ := json.Marshal(golden)
	event := &kafka.GoldenRecordEvent{
		EventType:       eventType,
		GoldenRecordID:  golden.ID,
		RemovedGoldenID: removedID,
		Data:            data,
		SourceCount:     golden.SourceCount,
	}

	if err := e.producer.PublishGoldenRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit golden record event")
	}
}
