package matching

import (
	"math"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/normalizers"
)

// DefaultFieldWeights reflect each field's discriminative power in the overall
// score. Fields absent from a pair are dropped and the remaining weights are
// re-normalized, so sparse records are not penalized.
var DefaultFieldWeights = map[string]float64{
	"company_name":  0.25,
	"email":         0.20,
	"phone":         0.10,
	"first_name":    0.10,
	"last_name":     0.10,
	"address_line1": 0.05,
	"city":          0.05,
	"postal_code":   0.05,
	"tax_id":        0.05,
	"website":       0.05,
}

// CompareField compares two raw field values using the comparator suited to
// the field type. Returns a similarity in [0,1]. Both values must be
// non-empty after normalization; callers omit the field otherwise.
func (s *Scorer) CompareField(field, valueA, valueB string) float64 {
	a := normalizers.ForField(field, valueA)
	b := normalizers.ForField(field, valueB)
	if a == "" || b == "" {
		return 0.0
	}

	switch field {
	case "email", "tax_id", "website":
		return s.ExactMatch(a, b)

	case "phone":
		// Suffix containment handles country code prefixes.
		if len(a) >= 7 && len(b) >= 7 && (endsWith(a, b) || endsWith(b, a)) {
			return 0.95
		}
		return s.Levenshtein(a, b)

	case "first_name", "last_name":
		return math.Max(s.JaroWinkler(a, b), s.Phonetic(a, b))

	case "company_name":
		return math.Max(s.JaroWinkler(a, b), math.Max(s.TokenSort(a, b), s.Levenshtein(a, b)))

	case "address_line1", "address_line2":
		return math.Max(s.TokenSort(a, b), s.Levenshtein(a, b))

	default:
		return s.JaroWinkler(a, b)
	}
}

func endsWith(a, b string) bool {
	return len(a) >= len(b) && a[len(a)-len(b):] == b
}

// CompareRecords scores two customer records. The field scores map contains
// only fields where both sides have a non-empty normalized value; the overall
// score is the weighted mean over those fields with weights re-normalized.
// Pure and symmetric: CompareRecords(a, b) == CompareRecords(b, a).
func (s *Scorer) CompareRecords(a, b *models.CustomerRecord, weights map[string]float64) (float64, map[string]float64) {
	if len(weights) == 0 {
		weights = DefaultFieldWeights
	}

	fieldScores := make(map[string]float64)
	weightedSum := 0.0
	totalWeight := 0.0

	for _, field := range models.StandardFields {
		weight, ok := weights[field]
		if !ok {
			continue
		}

		na := normalizers.ForField(field, a.Field(field))
		nb := normalizers.ForField(field, b.Field(field))
		if na == "" || nb == "" {
			// Absence is not disagreement; the field contributes nothing.
			continue
		}

		score := s.CompareField(field, a.Field(field), b.Field(field))
		fieldScores[field] = round4(score)
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0, fieldScores
	}
	return round4(weightedSum / totalWeight), fieldScores
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
