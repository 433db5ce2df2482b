package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a:b", PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}

func TestValidMatchStatus(t *testing.T) {
	for _, s := range []string{MatchStatusPending, MatchStatusApproved, MatchStatusRejected, MatchStatusMerged} {
		assert.True(t, ValidMatchStatus(s), s)
	}
	assert.False(t, ValidMatchStatus("deferred"))
	assert.False(t, ValidMatchStatus(""))
}

func TestRecordFieldAccessors(t *testing.T) {
	r := &CustomerRecord{}
	for _, field := range StandardFields {
		r.SetField(field, "v-"+field)
	}
	for _, field := range StandardFields {
		assert.Equal(t, "v-"+field, r.Field(field))
	}
	assert.Equal(t, "", r.Field("nonsense"))
}
