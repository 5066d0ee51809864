package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestwatch/deforestation-backend-go/internal/database"
	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

func registerTestImage(t *testing.T, repo *ImageRepository, imageID string) {
	t.Helper()
	require.NoError(t, repo.Register(&models.ProcessedImage{
		ImageID:         imageID,
		AcquisitionDate: testDate(7),
		Platform:        "S1A",
		OrbitDirection:  "DESCENDING",
	}))
}

func TestRegisterAndGet(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))
	registerTestImage(t, repo, "img-1")

	img, err := repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusPending, img.Status)
	assert.Equal(t, "S1A", img.Platform)
	assert.Equal(t, 0, img.NumAlertsGenerated)

	// Re-registering the same image is a no-op.
	registerTestImage(t, repo, "img-1")
	again, err := repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, img.ID, again.ID)
}

func TestGetUnknownImage(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestTryAcquireFromPending(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))
	registerTestImage(t, repo, "img-1")

	require.NoError(t, repo.TryAcquire("img-1"))

	img, err := repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusProcessing, img.Status)
}

func TestTryAcquireConflictWhileProcessing(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))
	registerTestImage(t, repo, "img-1")
	require.NoError(t, repo.TryAcquire("img-1"))

	// A second acquirer must lose the compare-and-set and abort.
	err := repo.TryAcquire("img-1")
	assert.ErrorIs(t, err, ErrImageStatusConflict)
}

func TestTryAcquireCompletedShortCircuits(t *testing.T) {
	db := openTestDB(t)
	repo := NewImageRepository(db)
	registerTestImage(t, repo, "img-1")
	require.NoError(t, repo.TryAcquire("img-1"))

	require.NoError(t, database.Transaction(db, func(tx *sql.Tx) error {
		return repo.MarkCompletedTx(tx, "img-1", 3)
	}))

	err := repo.TryAcquire("img-1")
	assert.ErrorIs(t, err, ErrImageAlreadyProcessed)

	img, err := repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusCompleted, img.Status)
	assert.Equal(t, 3, img.NumAlertsGenerated)
}

func TestMarkFailedAllowsRetry(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))
	registerTestImage(t, repo, "img-1")
	require.NoError(t, repo.TryAcquire("img-1"))
	require.NoError(t, repo.MarkFailed("img-1", "boundary load failed"))

	img, err := repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusFailed, img.Status)
	assert.Equal(t, "boundary load failed", img.ErrorMessage)

	// A FAILED image is eligible for reacquisition, and the stale error
	// message is cleared.
	require.NoError(t, repo.TryAcquire("img-1"))
	img, err = repo.Get("img-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImageStatusProcessing, img.Status)
	assert.Empty(t, img.ErrorMessage)
}

func TestMarkCompletedRequiresProcessing(t *testing.T) {
	db := openTestDB(t)
	repo := NewImageRepository(db)
	registerTestImage(t, repo, "img-1")

	err := database.Transaction(db, func(tx *sql.Tx) error {
		return repo.MarkCompletedTx(tx, "img-1", 0)
	})
	assert.ErrorIs(t, err, ErrImageStatusConflict)
}

func TestMarkFailedRequiresProcessing(t *testing.T) {
	repo := NewImageRepository(openTestDB(t))
	registerTestImage(t, repo, "img-1")

	err := repo.MarkFailed("img-1", "nope")
	assert.ErrorIs(t, err, ErrImageStatusConflict)
}
