package models

import "time"

// DataSource statuses
const (
	DataSourceStatusUploaded   = "uploaded"
	DataSourceStatusProcessing = "processing"
	DataSourceStatusProcessed  = "processed"
	DataSourceStatusError      = "error"
)

// DataSource represents one imported file / upstream system.
type DataSource struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileType    string    `json:"file_type" db:"file_type"`
	RecordCount int       `json:"record_count" db:"record_count"`
	Status      string    `json:"status" db:"status"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// CreateDataSourceRequest registers a new data source. File parsing and
// column mapping happen upstream; this service only receives mapped records.
type CreateDataSourceRequest struct {
	Name     string `json:"name" validate:"required"`
	FileName string `json:"file_name" validate:"required"`
	FileType string `json:"file_type" validate:"required,oneof=csv xlsx xls api"`
}

// ImportRecordsRequest bulk-loads mapped records into a source.
type ImportRecordsRequest struct {
	Records []ImportRecord `json:"records" validate:"required,min=1,dive"`
}

// ImportRecord is one mapped row from the import collaborator.
type ImportRecord struct {
	SourceRowNumber int               `json:"source_row_number"`
	Fields          map[string]string `json:"fields" validate:"required"`
	RawData         map[string]any    `json:"raw_data,omitempty"`
}
