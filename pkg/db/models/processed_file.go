package models

import (
	"time"

	"github.com/rowvault/csvvault-backend/pkg/enums"
)

// ProcessedFile captures metadata for one uploaded CSV. It is created in
// `processing` state before the object-store write and transitioned exactly
// once to a terminal status afterwards; only Status mutates after insert.
type ProcessedFile struct {
	ID         int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Filename   string             `gorm:"column:filename;not null"`
	UploadedAt time.Time          `gorm:"column:uploaded_at;autoCreateTime"`
	StorageKey string             `gorm:"column:storage_key;not null;unique"`
	RowCount   int                `gorm:"column:row_count;not null;default:0"`
	Status     enums.UploadStatus `gorm:"column:status;not null;default:processing"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (ProcessedFile) TableName() string {
	return "processed_files"
}
