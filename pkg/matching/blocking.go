package matching

import (
	"fmt"
	"strings"

	"github.com/rajeevhemai/unify-mdm/pkg/models"
	"github.com/rajeevhemai/unify-mdm/pkg/normalizers"
)

// BlockingKey is an ordered set of fields whose normalized values, joined,
// form one blocking signal. Two records are only worth scoring when they
// share the full value of at least one key. This trades recall for bounded
// runtime and is a policy knob, not a fixed rule.
type BlockingKey []string

// DefaultBlockingKeys covers the signals with the best precision/cost ratio
// for customer data.
func DefaultBlockingKeys() []BlockingKey {
	return []BlockingKey{
		{"email"},
		{"company_name"},
		{"phone"},
		{"last_name", "postal_code"},
	}
}

// ParseBlockingKeys parses the config form "email;company_name;last_name+postal_code".
func ParseBlockingKeys(spec string) []BlockingKey {
	var keys []BlockingKey
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var key BlockingKey
		for _, field := range strings.Split(part, "+") {
			field = strings.TrimSpace(field)
			if models.IsStandardField(field) {
				key = append(key, field)
			}
		}
		if len(key) > 0 {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return DefaultBlockingKeys()
	}
	return keys
}

// Scope restricts a matching run. The zero value means all records; a set
// SourceID means records of that source against everything else (incremental
// matching for a new import).
type Scope struct {
	SourceID *string
}

// ScopeAll matches every record against every other record.
func ScopeAll() Scope {
	return Scope{}
}

// ScopeSource matches one source's records against the rest of the pool.
func ScopeSource(sourceID string) Scope {
	return Scope{SourceID: &sourceID}
}

// Pair is an unordered candidate pair of records.
type Pair struct {
	A *models.CustomerRecord
	B *models.CustomerRecord
}

// Key returns the canonical unordered pair key.
func (p Pair) Key() string {
	return models.PairKey(p.A.ID, p.B.ID)
}

// Candidates generates the record pairs worth scoring. A pair is emitted at
// most once, never pairs a record with itself, never pairs two records that
// already share a golden record, and only when the two records share at least
// one blocking key value. Under a source scope, exactly one side of every
// pair belongs to the scoped source.
func Candidates(records []models.CustomerRecord, scope Scope, keys []BlockingKey) []Pair {
	if len(keys) == 0 {
		keys = DefaultBlockingKeys()
	}

	// Bucket record indices by blocking key value.
	buckets := make(map[string][]int)
	for i := range records {
		for ki, key := range keys {
			value, ok := blockingValue(&records[i], key)
			if !ok {
				continue
			}
			bucket := fmt.Sprintf("%d|%s", ki, value)
			buckets[bucket] = append(buckets[bucket], i)
		}
	}

	seen := make(map[string]struct{})
	var pairs []Pair

	for _, members := range buckets {
		for x := 0; x < len(members)-1; x++ {
			for y := x + 1; y < len(members); y++ {
				a := &records[members[x]]
				b := &records[members[y]]

				if a.ID == b.ID {
					continue
				}
				if scope.SourceID != nil {
					inA := a.SourceID == *scope.SourceID
					inB := b.SourceID == *scope.SourceID
					if inA == inB {
						continue
					}
				}
				if a.GoldenRecordID != nil && b.GoldenRecordID != nil && *a.GoldenRecordID == *b.GoldenRecordID {
					continue
				}

				key := models.PairKey(a.ID, b.ID)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
	}

	return pairs
}

// blockingValue builds the joined normalized key value; ok is false when any
// component field is empty after normalization.
func blockingValue(r *models.CustomerRecord, key BlockingKey) (string, bool) {
	parts := make([]string, 0, len(key))
	for _, field := range key {
		v := normalizers.ForField(field, r.Field(field))
		if v == "" {
			return "", false
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, "|"), true
}
