package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
)

func TestCompareField(t *testing.T) {
	s := NewScorer()

	t.Run("email is exact", func(t *testing.T) {
		assert.Equal(t, 1.0, s.CompareField("email", "John@Acme.com", "john@acme.com"))
		assert.Equal(t, 0.0, s.CompareField("email", "john@acme.com", "jon@acme.com"))
	})

	t.Run("phone suffix containment covers country codes", func(t *testing.T) {
		assert.Equal(t, 0.95, s.CompareField("phone", "+1-555-123-4567", "(555) 123-4567"))
		assert.Equal(t, 1.0, s.CompareField("phone", "555-123-4567", "5551234567"))
	})

	t.Run("short phones are not suffix matched", func(t *testing.T) {
		score := s.CompareField("phone", "123456", "3456")
		assert.NotEqual(t, 0.95, score)
	})

	t.Run("names use phonetics", func(t *testing.T) {
		assert.Equal(t, 1.0, s.CompareField("last_name", "Smith", "Smyth"))
	})

	t.Run("company tolerates word order", func(t *testing.T) {
		assert.Equal(t, 1.0, s.CompareField("company_name", "Inc Acme", "Acme Inc"))
	})

	t.Run("website ignores scheme and www", func(t *testing.T) {
		assert.Equal(t, 1.0, s.CompareField("website", "https://www.acme.com/", "acme.com"))
	})

	t.Run("empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.CompareField("company_name", "Acme", "  "))
	})
}

func TestCompareRecords(t *testing.T) {
	s := NewScorer()

	t.Run("shared email dominates", func(t *testing.T) {
		a := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme"}
		b := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme Inc"}

		overall, fields := s.CompareRecords(a, b, nil)
		assert.Equal(t, 1.0, fields["email"])
		assert.GreaterOrEqual(t, overall, 0.75)
	})

	t.Run("fields empty on either side are omitted", func(t *testing.T) {
		a := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme"}
		b := &models.CustomerRecord{Email: "a@x.com"}

		overall, fields := s.CompareRecords(a, b, nil)
		assert.Contains(t, fields, "email")
		assert.NotContains(t, fields, "company_name")
		assert.Equal(t, 1.0, overall)
	})

	t.Run("no overlapping fields yields zero", func(t *testing.T) {
		a := &models.CustomerRecord{Email: "a@x.com"}
		b := &models.CustomerRecord{CompanyName: "Acme"}

		overall, fields := s.CompareRecords(a, b, nil)
		assert.Equal(t, 0.0, overall)
		assert.Empty(t, fields)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme Corp", Phone: "555-123-4567"}
		b := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme Corporation", Phone: "+1 555 123 4567"}

		ab, abFields := s.CompareRecords(a, b, nil)
		ba, baFields := s.CompareRecords(b, a, nil)
		assert.Equal(t, ab, ba)
		assert.Equal(t, abFields, baFields)
	})

	t.Run("custom weights re-normalize", func(t *testing.T) {
		a := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Acme"}
		b := &models.CustomerRecord{Email: "a@x.com", CompanyName: "Globex"}

		// Email-only weighting makes the company mismatch irrelevant.
		overall, _ := s.CompareRecords(a, b, map[string]float64{"email": 1.0})
		assert.Equal(t, 1.0, overall)
	})

	t.Run("scores are rounded to four decimals", func(t *testing.T) {
		a := &models.CustomerRecord{CompanyName: "Acme Corporation"}
		b := &models.CustomerRecord{CompanyName: "Acme Corp"}

		overall, fields := s.CompareRecords(a, b, nil)
		for _, v := range []float64{overall, fields["company_name"]} {
			assert.InDelta(t, math.Round(v*10000)/10000, v, 1e-12)
		}
	})
}
