package uploads

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowvault/csvvault-backend/pkg/db/models"
	"github.com/rowvault/csvvault-backend/pkg/enums"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/logger"
	"github.com/rowvault/csvvault-backend/pkg/metrics"
)

const csvContentType = "text/csv"

type uploadRepository interface {
	Create(ctx context.Context, file *models.ProcessedFile) (*models.ProcessedFile, error)
	FindByID(ctx context.Context, id int64) (*models.ProcessedFile, error)
	ListRecent(ctx context.Context, limit int) ([]models.ProcessedFile, error)
	UpdateStatus(ctx context.Context, id int64, status enums.UploadStatus) error
}

type objectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Service exposes the upload ingestion pipeline and read paths.
type Service interface {
	Ingest(ctx context.Context, filename string, content []byte) (*IngestResult, error)
	GetFile(ctx context.Context, id int64) (*Record, error)
	ListFiles(ctx context.Context, limit int) ([]Record, error)
}

type service struct {
	repo    uploadRepository
	store   objectStore
	logg    *logger.Logger
	metrics *metrics.UploadMetrics
}

// NewService constructs the ingestion service backed by the metadata
// repository and object store.
func NewService(repo uploadRepository, store objectStore, logg *logger.Logger, m *metrics.UploadMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upload repository required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "object store required")
	}
	return &service{
		repo:    repo,
		store:   store,
		logg:    logg,
		metrics: m,
	}, nil
}

// IngestResult is returned to the caller after a successful upload.
type IngestResult struct {
	ID       int64
	Filename string
	RowCount int
}

// Ingest runs one upload through the pipeline: validate the filename, count
// rows, insert the metadata record in `processing`, write the bytes to the
// object store, then mark the record completed or failed.
func (s *service) Ingest(ctx context.Context, filename string, content []byte) (*IngestResult, error) {
	start := time.Now()

	if !strings.HasSuffix(filename, ".csv") {
		s.metrics.IncRejected()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only .csv files are accepted")
	}

	rowCount := CountDataRows(content)
	s.metrics.ObserveRowCount(rowCount)

	storageKey := uuid.NewString() + "/" + filename

	record, err := s.repo.Create(ctx, &models.ProcessedFile{
		Filename:   filename,
		StorageKey: storageKey,
		RowCount:   rowCount,
		Status:     enums.UploadStatusProcessing,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording upload metadata")
	}

	ctx = s.logg.WithUploadID(ctx, record.ID)
	ctx = s.logg.WithStorageKey(ctx, storageKey)

	if putErr := s.store.Put(ctx, storageKey, content, csvContentType); putErr != nil {
		s.logg.Error(ctx, "object store write failed", putErr)
		if err := s.finalize(ctx, record.ID, enums.UploadStatusFailed, start); err != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, putErr, "storing uploaded file").
			WithDetails(map[string]any{"filename": filename})
	}

	if err := s.finalize(ctx, record.ID, enums.UploadStatusCompleted, start); err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "upload ingested")

	return &IngestResult{
		ID:       record.ID,
		Filename: record.Filename,
		RowCount: record.RowCount,
	}, nil
}

// finalize writes the terminal status and records the pipeline outcome. When
// the status write fails the record stays in `processing`; there is no
// reconciliation pass, the failure is logged and surfaced.
func (s *service) finalize(ctx context.Context, id int64, status enums.UploadStatus, start time.Time) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logg.Error(ctx, "terminal status write failed, record left processing", err)
		s.metrics.ObserveOutcome("stuck", time.Since(start))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalizing upload status")
	}
	s.metrics.ObserveOutcome(status.String(), time.Since(start))
	return nil
}

// GetFile returns one upload record.
func (s *service) GetFile(ctx context.Context, id int64) (*Record, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading upload metadata")
	}
	record := NewRecord(file)
	return &record, nil
}

// ListFiles returns the newest uploads first. The limit is clamped into the
// allowed range before it reaches the store.
func (s *service) ListFiles(ctx context.Context, limit int) ([]Record, error) {
	files, err := s.repo.ListRecent(ctx, ClampListLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing upload metadata")
	}
	return NewRecords(files), nil
}
