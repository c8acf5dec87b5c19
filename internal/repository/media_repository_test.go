package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/api/internal/models"
)

func TestInsertAssets_ContinuesSortOrderAndClearsFeatured(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMediaRepository(mock)

	propertyID := uuid.New()
	firstID, secondID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(sort_order\\) \\+ 1, 0\\) FROM property_images").
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(4))
	mock.ExpectExec("UPDATE property_images SET is_featured = false").
		WithArgs(propertyID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO property_images").
		WithArgs(propertyID, "https://cdn/a.jpg", pgxmock.AnyArg(), true, 4).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(firstID.String()))
	mock.ExpectQuery("INSERT INTO property_images").
		WithArgs(propertyID, "https://cdn/b.jpg", pgxmock.AnyArg(), false, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(secondID.String()))
	mock.ExpectCommit()

	inserted, err := repo.InsertAssets(context.Background(), models.MediaImages, propertyID, []models.StoredAsset{
		{URL: "https://cdn/a.jpg", StoragePath: "p/a.jpg", IsFeatured: true},
		{URL: "https://cdn/b.jpg", StoragePath: "p/b.jpg", IsFeatured: true},
	})

	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, firstID, inserted[0].ID)
	assert.Equal(t, 4, inserted[0].SortOrder)
	assert.Equal(t, 5, inserted[1].SortOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAssets_Documents(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMediaRepository(mock)

	propertyID := uuid.New()
	title := "Brochure"

	mock.ExpectBegin()
	mock.ExpectQuery("FROM property_documents").
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO property_documents").
		WithArgs(propertyID, "https://cdn/brochure.pdf", pgxmock.AnyArg(), &title, pgxmock.AnyArg(), 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	inserted, err := repo.InsertAssets(context.Background(), models.MediaDocuments, propertyID, []models.StoredAsset{
		{URL: "https://cdn/brochure.pdf", Title: &title},
	})

	require.NoError(t, err)
	assert.Len(t, inserted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAssets_EmptyIsNoop(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMediaRepository(mock)

	inserted, err := repo.InsertAssets(context.Background(), models.MediaFloorPlans, uuid.New(), nil)

	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAssets_ReturnsStoragePaths(t *testing.T) {
	mock := newMockPool(t)
	repo := NewMediaRepository(mock)

	propertyID := uuid.New()
	a, b := uuid.New(), uuid.New()
	path := "p/a.jpg"

	mock.ExpectQuery("DELETE FROM property_images\\s+WHERE property_id = \\$1 AND id = ANY").
		WithArgs(propertyID, []string{a.String(), b.String()}).
		WillReturnRows(pgxmock.NewRows([]string{"storage_path"}).
			AddRow(&path).
			AddRow((*string)(nil)))

	deleted, err := repo.DeleteAssets(context.Background(), models.MediaImages, propertyID, []uuid.UUID{a, b})

	require.NoError(t, err)
	assert.Equal(t, 2, deleted.Count)
	assert.Equal(t, []string{"p/a.jpg"}, deleted.StoragePaths)
	assert.NoError(t, mock.ExpectationsWereMet())
}
