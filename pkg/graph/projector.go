package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// Projector maintains the provenance view: one GoldenRecord node per golden
// record with a DERIVED_FROM edge to each contributing SourceRecord node. The
// relational store stays authoritative; the graph is a queryable mirror.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

// NewProjector creates a new graph projector
func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// ProjectGoldenRecord upserts the golden record node and its provenance
// edges. Edges to records no longer in the cluster are removed so the graph
// tracks consolidations.
func (p *Projector) ProjectGoldenRecord(ctx context.Context, golden *models.GoldenRecord, records []models.CustomerRecord) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectGoldenRecord")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"golden_record_id": golden.ID,
		"record_count":     len(records),
	})

	props := map[string]any{
		"id":           golden.ID,
		"source_count": golden.SourceCount,
		"created_at":   golden.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"updated_at":   golden.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, field := range models.StandardFields {
		props[field] = golden.Field(field)
	}

	members := make([]map[string]any, 0, len(records))
	for i := range records {
		members = append(members, map[string]any{
			"id":         records[i].ID,
			"source_id":  records[i].SourceID,
			"row_number": records[i].SourceRowNumber,
		})
	}

	cypher := `
		MERGE (g:GoldenRecord {id: $id})
		SET g = $props
		WITH g
		OPTIONAL MATCH (g)-[old:DERIVED_FROM]->()
		DELETE old
		WITH DISTINCT g
		UNWIND $members AS member
		MERGE (r:SourceRecord {id: member.id})
		SET r.source_id = member.source_id, r.row_number = member.row_number
		MERGE (g)-[:DERIVED_FROM]->(r)
		RETURN g
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":      golden.ID,
			"props":   props,
			"members": members,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		log.WithError(err).Error("Failed to project golden record to graph")
		return fmt.Errorf("failed to project golden record to graph: %w", err)
	}

	log.Debug("Projected golden record to graph")
	return nil
}

// RemoveGoldenRecord deletes a golden record node and its edges, used when a
// consolidation folds one golden record into another.
func (p *Projector) RemoveGoldenRecord(ctx context.Context, goldenID string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RemoveGoldenRecord")
	defer span.End()

	cypher := `
		MATCH (g:GoldenRecord {id: $id})
		DETACH DELETE g
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": goldenID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"golden_record_id": goldenID,
		}).Error("Failed to remove golden record from graph")
		return fmt.Errorf("failed to remove golden record from graph: %w", err)
	}

	return nil
}
