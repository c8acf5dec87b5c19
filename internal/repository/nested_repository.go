package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// NestedRepository stores the child collections owned by a property.
type NestedRepository interface {
	// InsertNearbyPoints appends points to the property and returns them with
	// generated ids.
	InsertNearbyPoints(ctx context.Context, propertyID uuid.UUID, points []models.NearbyPoint) ([]models.NearbyPoint, error)

	// InsertConstructionUpdates appends updates to the property.
	InsertConstructionUpdates(ctx context.Context, propertyID uuid.UUID, updates []models.ConstructionUpdate) ([]models.ConstructionUpdate, error)

	// DeleteNearbyPoint deletes one point of the property. Reports false if
	// the point does not belong to it.
	DeleteNearbyPoint(ctx context.Context, propertyID, pointID uuid.UUID) (bool, error)

	// DeleteConstructionUpdate deletes one update of the property.
	DeleteConstructionUpdate(ctx context.Context, propertyID, updateID uuid.UUID) (bool, error)

	ListNearbyPoints(ctx context.Context, propertyID uuid.UUID) ([]models.NearbyPoint, error)
	ListConstructionUpdates(ctx context.Context, propertyID uuid.UUID) ([]models.ConstructionUpdate, error)
}

type nestedRepository struct {
	db database.DB
}

// NewNestedRepository creates a new instance of NestedRepository.
func NewNestedRepository(db database.DB) NestedRepository {
	return &nestedRepository{db: db}
}

func (r *nestedRepository) InsertNearbyPoints(ctx context.Context, propertyID uuid.UUID, points []models.NearbyPoint) ([]models.NearbyPoint, error) {
	inserted := make([]models.NearbyPoint, 0, len(points))
	if len(points) == 0 {
		return inserted, nil
	}

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, p := range points {
			p.PropertyID = propertyID
			err := tx.QueryRow(ctx, `
				INSERT INTO property_nearby_points (
					property_id, category_id, name, distance_km, distance_minutes, latitude, longitude
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`,
				propertyID, p.CategoryID, p.Name, p.DistanceKm, p.DistanceMinutes, p.Latitude, p.Longitude,
			).Scan(&p.ID, &p.CreatedAt)
			if err != nil {
				return classify(err, "failed to insert nearby point")
			}
			inserted = append(inserted, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *nestedRepository) InsertConstructionUpdates(ctx context.Context, propertyID uuid.UUID, updates []models.ConstructionUpdate) ([]models.ConstructionUpdate, error) {
	inserted := make([]models.ConstructionUpdate, 0, len(updates))
	if len(updates) == 0 {
		return inserted, nil
	}

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, u := range updates {
			u.PropertyID = propertyID
			err := tx.QueryRow(ctx, `
				INSERT INTO property_construction_updates (
					property_id, update_text, progress_percentage, update_date
				) VALUES ($1, $2, $3, $4)
				RETURNING id, created_at`,
				propertyID, u.UpdateText, u.ProgressPercentage, u.UpdateDate,
			).Scan(&u.ID, &u.CreatedAt)
			if err != nil {
				return classify(err, "failed to insert construction update")
			}
			inserted = append(inserted, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *nestedRepository) DeleteNearbyPoint(ctx context.Context, propertyID, pointID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM property_nearby_points WHERE id = $1 AND property_id = $2`, pointID, propertyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete nearby point %s: %w", pointID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *nestedRepository) DeleteConstructionUpdate(ctx context.Context, propertyID, updateID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM property_construction_updates WHERE id = $1 AND property_id = $2`, updateID, propertyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete construction update %s: %w", updateID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *nestedRepository) ListNearbyPoints(ctx context.Context, propertyID uuid.UUID) ([]models.NearbyPoint, error) {
	return listNearbyPoints(ctx, r.db, propertyID)
}

func (r *nestedRepository) ListConstructionUpdates(ctx context.Context, propertyID uuid.UUID) ([]models.ConstructionUpdate, error) {
	return listConstructionUpdates(ctx, r.db, propertyID)
}

func listNearbyPoints(ctx context.Context, db database.DB, propertyID uuid.UUID) ([]models.NearbyPoint, error) {
	rows, err := db.Query(ctx, `
		SELECT id, property_id, category_id, name, distance_km, distance_minutes, latitude, longitude, created_at
		FROM property_nearby_points
		WHERE property_id = $1
		ORDER BY created_at, id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby points: %w", err)
	}
	defer rows.Close()

	points := []models.NearbyPoint{}
	for rows.Next() {
		var p models.NearbyPoint
		if err := rows.Scan(
			&p.ID, &p.PropertyID, &p.CategoryID, &p.Name,
			&p.DistanceKm, &p.DistanceMinutes, &p.Latitude, &p.Longitude, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nearby point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearby points: %w", err)
	}
	return points, nil
}

func listConstructionUpdates(ctx context.Context, db database.DB, propertyID uuid.UUID) ([]models.ConstructionUpdate, error) {
	rows, err := db.Query(ctx, `
		SELECT id, property_id, update_text, progress_percentage, update_date, created_at
		FROM property_construction_updates
		WHERE property_id = $1
		ORDER BY update_date DESC, created_at DESC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query construction updates: %w", err)
	}
	defer rows.Close()

	updates := []models.ConstructionUpdate{}
	for rows.Next() {
		var u models.ConstructionUpdate
		if err := rows.Scan(
			&u.ID, &u.PropertyID, &u.UpdateText, &u.ProgressPercentage, &u.UpdateDate, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan construction update: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating construction updates: %w", err)
	}
	return updates, nil
}
