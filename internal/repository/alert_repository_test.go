package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestwatch/deforestation-backend-go/internal/database"
	"github.com/forestwatch/deforestation-backend-go/internal/models"
)

func TestInsertBatchTxAndListByImage(t *testing.T) {
	db := openTestDB(t)
	repo := NewAlertRepository(db)

	boundaryID := int64(7)
	optical := 0.8
	ndviDrop := 0.12
	alerts := []*models.AlertCandidate{
		{
			CellID:          "cell-1",
			DetectionDate:   testDate(7),
			ConfidenceScore: 0.91,
			CombinedScore:   0.87,
			AreaHectares:    1.0,
			RiskTier:        models.RiskTier2,
			VVDropDB:        -2.4,
			VHDropDB:        -1.1,
			OpticalScore:    &optical,
			NDVIDrop:        &ndviDrop,
			SourceImageID:   "img-1",
			BoundaryID:      &boundaryID,
		},
		{
			CellID:          "cell-2",
			DetectionDate:   testDate(7),
			ConfidenceScore: 0.93,
			CombinedScore:   0.93,
			AreaHectares:    1.0,
			RiskTier:        models.RiskTier1,
			VVDropDB:        -3.0,
			VHDropDB:        -2.8,
			SourceImageID:   "img-1",
		},
	}

	require.NoError(t, database.Transaction(db, func(tx *sql.Tx) error {
		return repo.InsertBatchTx(tx, alerts)
	}))
	assert.NotZero(t, alerts[0].ID)
	assert.NotZero(t, alerts[1].ID)

	stored, err := repo.ListByImage("img-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	first := stored[0]
	assert.Equal(t, "cell-1", first.CellID)
	assert.Equal(t, models.RiskTier2, first.RiskTier)
	assert.Equal(t, models.AlertStatusPending, first.Status)
	require.NotNil(t, first.BoundaryID)
	assert.Equal(t, boundaryID, *first.BoundaryID)
	require.NotNil(t, first.OpticalScore)
	assert.InDelta(t, optical, *first.OpticalScore, 1e-9)
	require.NotNil(t, first.NDVIDrop)
	assert.InDelta(t, ndviDrop, *first.NDVIDrop, 1e-9)

	second := stored[1]
	assert.Nil(t, second.OpticalScore)
	assert.Nil(t, second.BoundaryID)
	assert.Nil(t, second.MunicipalityID)

	count, err := repo.CountByImage("img-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecentCells(t *testing.T) {
	db := openTestDB(t)
	repo := NewAlertRepository(db)

	alerts := []*models.AlertCandidate{
		{CellID: "cell-old", DetectionDate: testDate(1), ConfidenceScore: 0.9, CombinedScore: 0.9, AreaHectares: 1, RiskTier: models.RiskTier1, SourceImageID: "img-0"},
		{CellID: "cell-new", DetectionDate: testDate(20), ConfidenceScore: 0.9, CombinedScore: 0.9, AreaHectares: 1, RiskTier: models.RiskTier1, SourceImageID: "img-1"},
		{CellID: "cell-new", DetectionDate: testDate(21), ConfidenceScore: 0.9, CombinedScore: 0.9, AreaHectares: 1, RiskTier: models.RiskTier1, SourceImageID: "img-2"},
	}
	require.NoError(t, database.Transaction(db, func(tx *sql.Tx) error {
		return repo.InsertBatchTx(tx, alerts)
	}))

	cells, err := repo.RecentCells(testDate(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"cell-new"}, cells)
}

func TestUpdateStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewAlertRepository(db)

	alerts := []*models.AlertCandidate{
		{CellID: "cell-1", DetectionDate: testDate(7), ConfidenceScore: 0.9, CombinedScore: 0.9, AreaHectares: 1, RiskTier: models.RiskTier1, SourceImageID: "img-1"},
	}
	require.NoError(t, database.Transaction(db, func(tx *sql.Tx) error {
		return repo.InsertBatchTx(tx, alerts)
	}))

	require.NoError(t, repo.UpdateStatus(alerts[0].ID, models.AlertStatusVerified))

	stored, err := repo.ListByImage("img-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.AlertStatusVerified, stored[0].Status)
}
