package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

type fakeGoldenStore struct {
	goldens []models.GoldenRecord
}

func (f *fakeGoldenStore) List(ctx context.Context) ([]models.GoldenRecord, error) {
	return f.goldens, nil
}

func TestExporter_Write(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("writes header and rows", func(t *testing.T) {
		store := &fakeGoldenStore{goldens: []models.GoldenRecord{
			{
				ID:          "g1",
				CompanyName: "Acme",
				Email:       "a@x.com",
				SourceCount: 2,
				CreatedAt:   created,
				UpdatedAt:   created,
			},
			{
				ID:          "g2",
				CompanyName: "Globex, Inc.",
				SourceCount: 1,
				CreatedAt:   created.Add(time.Hour),
				UpdatedAt:   created.Add(time.Hour),
			},
		}}

		var buf bytes.Buffer
		count, err := NewExporter(store).Write(context.Background(), &buf)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, Header(), rows[0])
		assert.Equal(t, "g1", rows[1][0])
		assert.Equal(t, "Acme", rows[1][1])
		assert.Equal(t, "2", rows[1][len(rows[1])-3])
		assert.Equal(t, "2026-03-01T12:00:00Z", rows[1][len(rows[1])-2])

		// Embedded comma survives quoting.
		assert.Equal(t, "Globex, Inc.", rows[2][1])
	})

	t.Run("empty set writes header only", func(t *testing.T) {
		var buf bytes.Buffer
		count, err := NewExporter(&fakeGoldenStore{}).Write(context.Background(), &buf)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, Header(), rows[0])
	})

	t.Run("header order is id then fields then metadata", func(t *testing.T) {
		header := Header()
		assert.Equal(t, "id", header[0])
		assert.Equal(t, models.StandardFields, header[1:len(header)-3])
		assert.Equal(t, []string{"source_count", "created_at", "updated_at"}, header[len(header)-3:])
	})
}
