package models

import (
	"encoding/json"
	"time"
)

// CustomerRecord is a single customer row imported from a data source.
// Immutable after import except for the golden record back-reference, which is
// set exactly once when the record is merged or promoted.
type CustomerRecord struct {
	ID              string          `json:"id" db:"id"`
	SourceID        string          `json:"source_id" db:"source_id"`
	SourceRowNumber int             `json:"source_row_number" db:"source_row_number"`
	CompanyName     string          `json:"company_name" db:"company_name"`
	FirstName       string          `json:"first_name" db:"first_name"`
	LastName        string          `json:"last_name" db:"last_name"`
	Email           string          `json:"email" db:"email"`
	Phone           string          `json:"phone" db:"phone"`
	AddressLine1    string          `json:"address_line1" db:"address_line1"`
	AddressLine2    string          `json:"address_line2" db:"address_line2"`
	City            string          `json:"city" db:"city"`
	State           string          `json:"state" db:"state"`
	PostalCode      string          `json:"postal_code" db:"postal_code"`
	Country         string          `json:"country" db:"country"`
	TaxID           string          `json:"tax_id" db:"tax_id"`
	Website         string          `json:"website" db:"website"`
	RawData         json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	GoldenRecordID  *string         `json:"golden_record_id,omitempty" db:"golden_record_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Field returns the value of a standard field by name. Unknown names return
// the empty string.
func (r *CustomerRecord) Field(name string) string {
	switch name {
	case "company_name":
		return r.CompanyName
	case "first_name":
		return r.FirstName
	case "last_name":
		return r.LastName
	case "email":
		return r.Email
	case "phone":
		return r.Phone
	case "address_line1":
		return r.AddressLine1
	case "address_line2":
		return r.AddressLine2
	case "city":
		return r.City
	case "state":
		return r.State
	case "postal_code":
		return r.PostalCode
	case "country":
		return r.Country
	case "tax_id":
		return r.TaxID
	case "website":
		return r.Website
	}
	return ""
}

// SetField sets a standard field by name. Unknown names are ignored.
func (r *CustomerRecord) SetField(name, value string) {
	switch name {
	case "company_name":
		r.CompanyName = value
	case "first_name":
		r.FirstName = value
	case "last_name":
		r.LastName = value
	case "email":
		r.Email = value
	case "phone":
		r.Phone = value
	case "address_line1":
		r.AddressLine1 = value
	case "address_line2":
		r.AddressLine2 = value
	case "city":
		r.City = value
	case "state":
		r.State = value
	case "postal_code":
		r.PostalCode = value
	case "country":
		r.Country = value
	case "tax_id":
		r.TaxID = value
	case "website":
		r.Website = value
	}
}
