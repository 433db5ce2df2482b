package models

import (
	"encoding/json"
	"time"
)

// MatchStatus constants. Rejected rows are never deleted: they are the
// rejected-pair memory that keeps matching runs from resurrecting a pair a
// reviewer has already dismissed.
const (
	MatchStatusPending  = "pending"
	MatchStatusApproved = "approved"
	MatchStatusRejected = "rejected"
	MatchStatusMerged   = "merged"
)

// ValidMatchStatus reports whether s is a known match status.
func ValidMatchStatus(s string) bool {
	switch s {
	case MatchStatusPending, MatchStatusApproved, MatchStatusRejected, MatchStatusMerged:
		return true
	}
	return false
}

// MatchCandidate is a probable duplicate pair of customer records.
// The pair is unordered; RecordAID/RecordBID are stored in lexicographic
// order so (A,B) and (B,A) share one row.
type MatchCandidate struct {
	ID           string          `json:"id" db:"id"`
	RecordAID    string          `json:"record_a_id" db:"record_a_id"`
	RecordBID    string          `json:"record_b_id" db:"record_b_id"`
	OverallScore float64         `json:"overall_score" db:"overall_score"`
	FieldScores  json.RawMessage `json:"field_scores" db:"field_scores"`
	MatchMethod  string          `json:"match_method" db:"match_method"`
	Status       string          `json:"status" db:"status"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy   *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// PairKey returns the canonical key for an unordered record pair.
func PairKey(recordA, recordB string) string {
	if recordB < recordA {
		recordA, recordB = recordB, recordA
	}
	return recordA + ":" + recordB
}

// MatchCandidateExpanded is a match candidate with both record snapshots, the
// shape the review UI consumes.
type MatchCandidateExpanded struct {
	MatchCandidate
	RecordA *CustomerRecord `json:"record_a"`
	RecordB *CustomerRecord `json:"record_b"`
}

// ReviewMatchRequest approves or rejects a pending match.
type ReviewMatchRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes,omitempty"`
}

// RunMatchingRequest configures a matching run.
type RunMatchingRequest struct {
	Threshold    float64            `json:"threshold,omitempty"`
	FieldWeights map[string]float64 `json:"field_weights,omitempty"`
}

// MatchStats summarizes candidates by status.
type MatchStats struct {
	Total    int `json:"total" db:"total"`
	Pending  int `json:"pending" db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
	Merged   int `json:"merged" db:"merged"`
}
