package models

import "time"

// GoldenRecord is the merged canonical customer entity. Its contributing
// source records are the customer records whose golden record back-reference
// points at it; each record belongs to at most one golden record.
type GoldenRecord struct {
	ID           string    `json:"id" db:"id"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	AddressLine1 string    `json:"address_line1" db:"address_line1"`
	AddressLine2 string    `json:"address_line2" db:"address_line2"`
	City         string    `json:"city" db:"city"`
	State        string    `json:"state" db:"state"`
	PostalCode   string    `json:"postal_code" db:"postal_code"`
	Country      string    `json:"country" db:"country"`
	TaxID        string    `json:"tax_id" db:"tax_id"`
	Website      string    `json:"website" db:"website"`
	SourceCount  int       `json:"source_count" db:"source_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Field returns the value of a standard field by name.
func (g *GoldenRecord) Field(name string) string {
	switch name {
	case "company_name":
		return g.CompanyName
	case "first_name":
		return g.FirstName
	case "last_name":
		return g.LastName
	case "email":
		return g.Email
	case "phone":
		return g.Phone
	case "address_line1":
		return g.AddressLine1
	case "address_line2":
		return g.AddressLine2
	case "city":
		return g.City
	case "state":
		return g.State
	case "postal_code":
		return g.PostalCode
	case "country":
		return g.Country
	case "tax_id":
		return g.TaxID
	case "website":
		return g.Website
	}
	return ""
}

// SetField sets a standard field by name. Unknown names are ignored.
func (g *GoldenRecord) SetField(name, value string) {
	switch name {
	case "company_name":
		g.CompanyName = value
	case "first_name":
		g.FirstName = value
	case "last_name":
		g.LastName = value
	case "email":
		g.Email = value
	case "phone":
		g.Phone = value
	case "address_line1":
		g.AddressLine1 = value
	case "address_line2":
		g.AddressLine2 = value
	case "city":
		g.City = value
	case "state":
		g.State = value
	case "postal_code":
		g.PostalCode = value
	case "country":
		g.Country = value
	case "tax_id":
		g.TaxID = value
	case "website":
		g.Website = value
	}
}

// GoldenRecordExpanded is a golden record with its contributing source rows.
type GoldenRecordExpanded struct {
	GoldenRecord
	SourceRecords []CustomerRecord `json:"source_records"`
}

// MergeRequest merges a reviewed match into a golden record. SurvivingValues
// carries field literals already resolved by the review UI; fields it omits
// fall back to the automatic survivorship policy.
type MergeRequest struct {
	MatchID         string            `json:"match_id" validate:"required"`
	SurvivingValues map[string]string `json:"surviving_values,omitempty"`
}

// DashboardStats is the read-only aggregate view for the dashboard.
type DashboardStats struct {
	TotalSources         int     `json:"total_sources"`
	TotalRecords         int     `json:"total_records"`
	TotalMatchesPending  int     `json:"total_matches_pending"`
	TotalMatchesApproved int     `json:"total_matches_approved"`
	TotalMatchesRejected int     `json:"total_matches_rejected"`
	TotalMatchesMerged   int     `json:"total_matches_merged"`
	TotalGoldenRecords   int     `json:"total_golden_records"`
	DuplicateRate        float64 `json:"duplicate_rate"`
}
