// Package export renders golden records as CSV.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/tracing"
)

// GoldenStore is the golden record access the exporter needs.
type GoldenStore interface {
	List(ctx context.Context) ([]models.GoldenRecord, error)
}

// Exporter streams the golden record set as CSV.
type Exporter struct {
	goldens GoldenStore
}

// NewExporter creates a new exporter
func NewExporter(goldens GoldenStore) *Exporter {
	return &Exporter{goldens: goldens}
}

// Header is the CSV column list: id, the standard fields in import order,
// then the merge metadata.
func Header() []string {
	header := make([]string, 0, len(models.StandardFields)+4)
	header = append(header, "id")
	header = append(header, models.StandardFields...)
	return append(header, "source_count", "created_at", "updated_at")
}

// Write streams every golden record to w as one CSV document with a header
// row. Rows come out in the store's order (creation order).
func (e *Exporter) Write(ctx context.Context, w io.Writer) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "export.Exporter.Write")
	defer span.End()

	goldens, err := e.goldens.List(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return 0, err
	}

	for i := range goldens {
		if err := cw.Write(Row(&goldens[i])); err != nil {
			return i, err
		}
	}

	cw.Flush()
	return len(goldens), cw.Error()
}

// Row renders one golden record in Header order.
func Row(golden *models.GoldenRecord) []string {
	row := make([]string, 0, len(models.StandardFields)+4)
	row = append(row, golden.ID)
	for _, field := range models.StandardFields {
		row = append(row, golden.Field(field))
	}
	return append(row,
		strconv.Itoa(golden.SourceCount),
		golden.CreatedAt.UTC().Format(time.RFC3339),
		golden.UpdatedAt.UTC().Format(time.RFC3339),
	)
}
