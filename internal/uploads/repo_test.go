package uploads

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rowvault/csvvault-backend/pkg/db/models"
	"github.com/rowvault/csvvault-backend/pkg/enums"
)

func setupUploadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ProcessedFile{}))
	return db
}

func seedFile(t *testing.T, repo *Repository, filename string) *models.ProcessedFile {
	t.Helper()

	created, err := repo.Create(context.Background(), &models.ProcessedFile{
		Filename:   filename,
		StorageKey: fmt.Sprintf("key-%s-%d", filename, time.Now().UnixNano()),
		RowCount:   3,
		Status:     enums.UploadStatusProcessing,
	})
	require.NoError(t, err)
	return created
}

func TestRepositoryCreateAssignsIDAndTimestamp(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))

	created := seedFile(t, repo, "orders.csv")
	assert.NotZero(t, created.ID)
	assert.False(t, created.UploadedAt.IsZero())
	assert.Equal(t, enums.UploadStatusProcessing, created.Status)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", found.Filename)
	assert.Equal(t, 3, found.RowCount)
}

func TestRepositoryCreateRejectsDuplicateStorageKey(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.ProcessedFile{Filename: "a.csv", StorageKey: "same-key"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.ProcessedFile{Filename: "b.csv", StorageKey: "same-key"})
	assert.Error(t, err)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))

	_, err := repo.FindByID(context.Background(), 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListRecentOrdersNewestFirst(t *testing.T) {
	db := setupUploadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		file := seedFile(t, repo, fmt.Sprintf("file-%d.csv", i))
		require.NoError(t, db.Model(&models.ProcessedFile{}).
			Where("id = ?", file.ID).
			Update("uploaded_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	files, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "file-2.csv", files[0].Filename)
	assert.Equal(t, "file-0.csv", files[2].Filename)
}

func TestRepositoryListRecentBreaksTimestampTiesByID(t *testing.T) {
	db := setupUploadsTestDB(t)
	repo := NewRepository(db)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		file := seedFile(t, repo, fmt.Sprintf("tie-%d.csv", i))
		require.NoError(t, db.Model(&models.ProcessedFile{}).
			Where("id = ?", file.ID).
			Update("uploaded_at", ts).Error)
	}

	files, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Greater(t, files[0].ID, files[1].ID)
	assert.Greater(t, files[1].ID, files[2].ID)
}

func TestRepositoryListRecentHonorsLimit(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))

	for i := 0; i < 5; i++ {
		seedFile(t, repo, fmt.Sprintf("lim-%d.csv", i))
	}

	files, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRepositoryUpdateStatusTransitionsAndIdempotence(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))
	ctx := context.Background()

	file := seedFile(t, repo, "state.csv")

	require.NoError(t, repo.UpdateStatus(ctx, file.ID, enums.UploadStatusCompleted))

	found, err := repo.FindByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UploadStatusCompleted, found.Status)

	// Re-writing the same terminal status is a no-op.
	require.NoError(t, repo.UpdateStatus(ctx, file.ID, enums.UploadStatusCompleted))

	// Moving to the other terminal status is refused.
	err = repo.UpdateStatus(ctx, file.ID, enums.UploadStatusFailed)
	assert.ErrorIs(t, err, ErrStatusFinal)

	found, err = repo.FindByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UploadStatusCompleted, found.Status)
}

func TestRepositoryUpdateStatusUnknownID(t *testing.T) {
	repo := NewRepository(setupUploadsTestDB(t))

	err := repo.UpdateStatus(context.Background(), 424242, enums.UploadStatusFailed)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
