package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/api/internal/models"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestAssociationReplace_DeletesThenInserts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()
	b, c := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM property_amenities WHERE property_id").
		WithArgs(propertyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO property_amenities \\(property_id, amenity_id\\)").
		WithArgs(propertyID, []string{b.String(), c.String()}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), models.RelationAmenities, propertyID, []uuid.UUID{b, c})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationReplace_EmptySetOnlyClears(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM property_views WHERE property_id").
		WithArgs(propertyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), models.RelationViews, propertyID, []uuid.UUID{})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationReplace_UnknownReferenceRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()
	unknown := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM property_features").
		WithArgs(propertyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO property_features").
		WithArgs(propertyID, []string{unknown.String()}).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "fk_property_features_feature"})
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), models.RelationFeatures, propertyID, []uuid.UUID{unknown})

	assert.ErrorIs(t, err, ErrReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationAdd_IgnoresConflicts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()
	amenity := uuid.New()

	mock.ExpectExec("ON CONFLICT DO NOTHING").
		WithArgs(propertyID, []string{amenity.String()}).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.Add(context.Background(), models.RelationAmenities, propertyID, []uuid.UUID{amenity})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationAdd_EmptyIsNoop(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	err := repo.Add(context.Background(), models.RelationAmenities, uuid.New(), nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationRemove_ReportsRowsAffected(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()
	view := uuid.New()

	mock.ExpectExec("DELETE FROM property_views WHERE property_id = \\$1 AND view_type_id = ANY").
		WithArgs(propertyID, []string{view.String()}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	n, err := repo.Remove(context.Background(), models.RelationViews, propertyID, []uuid.UUID{view})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationList(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT amenity_id FROM property_amenities").
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"amenity_id"}).
			AddRow(a.String()).
			AddRow(b.String()))

	ids, err := repo.List(context.Background(), models.RelationAmenities, propertyID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssociationList_EmptyIsNonNil(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAssociationRepository(mock)

	propertyID := uuid.New()

	mock.ExpectQuery("SELECT feature_id FROM property_features").
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"feature_id"}))

	ids, err := repo.List(context.Background(), models.RelationFeatures, propertyID)

	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}
