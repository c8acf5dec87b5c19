package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// AssociationRepository manages the pure join tables between a property and
// its amenities, features and views.
type AssociationRepository interface {
	// Replace deletes every row of the relation for the property and inserts
	// one row per id, in one transaction. An empty ids slice clears the set.
	Replace(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error

	// Add inserts rows that are not already present.
	Add(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error

	// Remove deletes the given rows and reports how many existed.
	Remove(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) (int64, error)

	// List returns the stored reference ids for the relation.
	List(ctx context.Context, relation models.Relation, propertyID uuid.UUID) ([]uuid.UUID, error)
}

type associationRepository struct {
	db database.DB
}

// NewAssociationRepository creates a new instance of AssociationRepository.
func NewAssociationRepository(db database.DB) AssociationRepository {
	return &associationRepository{db: db}
}

func (r *associationRepository) Replace(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE property_id = $1`, relation.Table())
		if _, err := tx.Exec(ctx, deleteSQL, propertyID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", relation, err)
		}

		if len(ids) == 0 {
			return nil
		}

		insertSQL := fmt.Sprintf(`
			INSERT INTO %s (property_id, %s)
			SELECT $1, ref FROM unnest($2::uuid[]) AS ref`,
			relation.Table(), relation.RefColumn())
		if _, err := tx.Exec(ctx, insertSQL, propertyID, uuidStrings(ids)); err != nil {
			return classify(err, fmt.Sprintf("failed to insert %s", relation))
		}
		return nil
	})
}

func (r *associationRepository) Add(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (property_id, %s)
		SELECT $1, ref FROM unnest($2::uuid[]) AS ref
		ON CONFLICT DO NOTHING`,
		relation.Table(), relation.RefColumn())
	if _, err := r.db.Exec(ctx, query, propertyID, uuidStrings(ids)); err != nil {
		return classify(err, fmt.Sprintf("failed to add %s", relation))
	}
	return nil
}

func (r *associationRepository) Remove(ctx context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE property_id = $1 AND %s = ANY($2::uuid[])`,
		relation.Table(), relation.RefColumn())
	tag, err := r.db.Exec(ctx, query, propertyID, uuidStrings(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", relation, err)
	}
	return tag.RowsAffected(), nil
}

func (r *associationRepository) List(ctx context.Context, relation models.Relation, propertyID uuid.UUID) ([]uuid.UUID, error) {
	return listAssociation(ctx, r.db, relation, propertyID)
}

func listAssociation(ctx context.Context, db database.DB, relation models.Relation, propertyID uuid.UUID) ([]uuid.UUID, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE property_id = $1 ORDER BY %s`,
		relation.RefColumn(), relation.Table(), relation.RefColumn())

	rows, err := db.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", relation, err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", relation, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", relation, err)
	}
	return ids, nil
}

// listAmenitySets returns the amenity ids of each property in one query.
func listAmenitySets(ctx context.Context, db database.DB, propertyIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	sets := make(map[uuid.UUID][]uuid.UUID, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return sets, nil
	}

	rows, err := db.Query(ctx, `
		SELECT property_id, amenity_id
		FROM property_amenities
		WHERE property_id = ANY($1::uuid[])`, uuidStrings(propertyIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query amenity sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propertyID, amenityID uuid.UUID
		if err := rows.Scan(&propertyID, &amenityID); err != nil {
			return nil, fmt.Errorf("failed to scan amenity row: %w", err)
		}
		sets[propertyID] = append(sets[propertyID], amenityID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amenity rows: %w", err)
	}
	return sets, nil
}

// clearAssociations removes every join row of the property. The property
// foreign keys on the join tables do not cascade.
func clearAssociations(ctx context.Context, db database.DB, propertyID uuid.UUID) error {
	for _, relation := range models.Relations {
		query := fmt.Sprintf(`DELETE FROM %s WHERE property_id = $1`, relation.Table())
		if _, err := db.Exec(ctx, query, propertyID); err != nil {
			return classify(err, fmt.Sprintf("failed to clear %s", relation))
		}
	}
	return nil
}
