package merging

import (
	"time"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/normalizers"
)

// contribution is one candidate value for a field with the import time of the
// row it came from. A golden record contributes with its creation time, which
// makes it the senior side when absorbing a newer source record.
type contribution struct {
	value      string
	importedAt time.Time
}

// surviveValue picks the surviving value among contributions: non-empty wins
// over empty, more normalized content wins over less, and on a tie the value
// from the earliest import wins. Returns empty when every contribution is
// empty.
func surviveValue(field string, contributions []contribution) string {
	best := ""
	bestLen := -1
	var bestAt time.Time

	for _, c := range contributions {
		if c.value == "" {
			continue
		}
		length := len(normalizers.ForField(field, c.value))
		if length == 0 {
			continue
		}
		switch {
		case length > bestLen:
		case length == bestLen && c.importedAt.Before(bestAt):
		default:
			continue
		}
		best = c.value
		bestLen = length
		bestAt = c.importedAt
	}

	return best
}

// applySurvivorship fills every standard field of golden from the
// contributing rows. Overrides are reviewer-chosen literals that bypass the
// automatic policy for their field; unknown override fields are ignored. When
// base is true the golden's current values participate as the senior
// contribution, so absorbing a record never erases settled fields.
func applySurvivorship(golden *models.GoldenRecord, records []*models.CustomerRecord, overrides map[string]string, base bool) {
	for _, field := range models.StandardFields {
		if value, ok := overrides[field]; ok {
			golden.SetField(field, value)
			continue
		}

		contributions := make([]contribution, 0, len(records)+1)
		if base {
			contributions = append(contributions, contribution{value: golden.Field(field), importedAt: golden.CreatedAt})
		}
		for _, r := range records {
			contributions = append(contributions, contribution{value: r.Field(field), importedAt: r.CreatedAt})
		}

		golden.SetField(field, surviveValue(field, contributions))
	}
}
