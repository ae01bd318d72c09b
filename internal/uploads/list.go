package uploads

import (
	"time"

	"github.com/rowvault/csvvault-backend/pkg/db/models"
	"github.com/rowvault/csvvault-backend/pkg/enums"
)

const (
	// DefaultListLimit applies when the caller does not ask for a limit.
	DefaultListLimit = 50
	// MaxListLimit caps how many records a single list call returns.
	MaxListLimit = 500
)

// Record is the read-side representation of an upload.
type Record struct {
	ID         int64              `json:"id"`
	Filename   string             `json:"filename"`
	UploadedAt time.Time          `json:"uploaded_at"`
	StorageKey string             `json:"storage_key"`
	RowCount   int                `json:"row_count"`
	Status     enums.UploadStatus `json:"status"`
}

// NewRecord converts a stored model into its read representation.
func NewRecord(file *models.ProcessedFile) Record {
	return Record{
		ID:         file.ID,
		Filename:   file.Filename,
		UploadedAt: file.UploadedAt.UTC(),
		StorageKey: file.StorageKey,
		RowCount:   file.RowCount,
		Status:     file.Status,
	}
}

// NewRecords converts a model slice, preserving order.
func NewRecords(files []models.ProcessedFile) []Record {
	records := make([]Record, 0, len(files))
	for i := range files {
		records = append(records, NewRecord(&files[i]))
	}
	return records
}

// ClampListLimit normalizes a requested list size into the allowed range.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
