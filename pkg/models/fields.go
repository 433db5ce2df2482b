package models

// StandardFields is the fixed customer field set shared by source records and
// golden records. Order matters: it is the column order for CSV export.
var StandardFields = []string{
	"company_name",
	"first_name",
	"last_name",
	"email",
	"phone",
	"address_line1",
	"address_line2",
	"city",
	"state",
	"postal_code",
	"country",
	"tax_id",
	"website",
}

// IsStandardField reports whether name is one of the fixed customer fields.
func IsStandardField(name string) bool {
	for _, f := range StandardFields {
		if f == name {
			return true
		}
	}
	return false
}
