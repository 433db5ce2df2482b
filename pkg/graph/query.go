package graph

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// QueryService reads the provenance view
type QueryService struct {
	client *Client
	logger ectologger.Logger
}

// NewQueryService creates a new query service
func NewQueryService(client *Client, logger ectologger.Logger) *QueryService {
	return &QueryService{
		client: client,
		logger: logger,
	}
}

// ProvenanceNode is a node in a provenance result
type ProvenanceNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// ProvenanceResult is the cluster around one golden record: the golden node
// plus every source record it was derived from.
type ProvenanceResult struct {
	GoldenRecord *ProvenanceNode  `json:"golden_record"`
	Sources      []ProvenanceNode `json:"sources"`
}

// Provenance returns the golden record node and its DERIVED_FROM sources.
// The graph is an eventually consistent mirror; a missing node means the
// record has not been projected yet, not that it does not exist.
func (s *QueryService) Provenance(ctx context.Context, goldenID string) (*ProvenanceResult, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.QueryService.Provenance")
	defer span.End()

	cypher := `
		MATCH (g:GoldenRecord {id: $id})
		OPTIONAL MATCH (g)-[:DERIVED_FROM]->(r:SourceRecord)
		RETURN g, collect(r) AS sources
	`

	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": goldenID})
		if err != nil {
			return nil, err
		}

		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}

		goldenRaw, _ := record.Get("g")
		goldenNode, ok := goldenRaw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected golden node type %T", goldenRaw)
		}

		out := &ProvenanceResult{GoldenRecord: toProvenanceNode(goldenNode)}

		sourcesRaw, _ := record.Get("sources")
		if sources, ok := sourcesRaw.([]any); ok {
			for _, src := range sources {
				if node, ok := src.(neo4j.Node); ok {
					out.Sources = append(out.Sources, *toProvenanceNode(node))
				}
			}
		}

		return out, nil
	})
	if err != nil {
		if neo4j.IsNeo4jError(err) {
			s.logger.WithContext(ctx).WithError(err).Error("Provenance query failed")
			return nil, fmt.Errorf("provenance query failed: %w", err)
		}
		return nil, httperror.NewHTTPError(http.StatusNotFound, "golden record not projected: "+goldenID)
	}

	return res.(*ProvenanceResult), nil
}

func toProvenanceNode(node neo4j.Node) *ProvenanceNode {
	id := ""
	if v, ok := node.Props["id"].(string); ok {
		id = v
	}
	return &ProvenanceNode{
		ID:         id,
		Labels:     node.Labels,
		Properties: node.Props,
	}
}
