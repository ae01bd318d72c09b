package uploads

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rowvault/csvvault-backend/pkg/db/models"
	"github.com/rowvault/csvvault-backend/pkg/enums"
)

// ErrStatusFinal reports an attempt to move a record from one terminal status
// to a different one.
var ErrStatusFinal = errors.New("upload status already final")

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Repository exposes processed-file metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an upload repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists an upload record. The record is visible to readers as soon
// as this returns.
func (r *Repository) Create(ctx context.Context, file *models.ProcessedFile) (*models.ProcessedFile, error) {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

// FindByID retrieves one upload record.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.ProcessedFile, error) {
	var file models.ProcessedFile
	if err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListRecent returns the newest uploads first, id descending as tiebreak for
// identical timestamps.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.ProcessedFile, error) {
	var files []models.ProcessedFile
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// UpdateStatus moves a record from processing into a terminal status. Writing
// the same terminal status again is a no-op; the record never leaves its first
// terminal state. Unknown ids return gorm.ErrRecordNotFound. The verify read
// shares a transaction with the update so the zero-rows diagnosis is
// consistent.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.UploadStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.ProcessedFile{}).
			Where("id = ? AND status = ?", id, enums.UploadStatusProcessing).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.ProcessedFile
			if err := tx.First(&current, "id = ?", id).Error; err != nil {
				return err
			}
			if current.Status != status {
				return ErrStatusFinal
			}
		}
		return nil
	})
}
