package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// InsertedAsset identifies a newly inserted media row.
type InsertedAsset struct {
	URL       string    `json:"url"`
	ID        uuid.UUID `json:"id"`
	SortOrder int       `json:"sortOrder"`
}

// DeletedAssets reports the rows removed by DeleteAssets.
type DeletedAssets struct {
	// StoragePaths holds the paths of deleted rows whose bytes we own.
	StoragePaths []string
	Count        int
}

// MediaRepository manages image, document and floor plan rows.
type MediaRepository interface {
	// InsertAssets appends rows for already stored files. Sort order continues
	// after the highest existing value of the category. When an image is
	// flagged featured the flag is cleared on every other image first.
	InsertAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, assets []models.StoredAsset) ([]InsertedAsset, error)

	// DeleteAssets removes rows scoped to the property. Ids belonging to
	// another property are ignored.
	DeleteAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, ids []uuid.UUID) (*DeletedAssets, error)

	// ListImages returns the images of every given property, unordered.
	ListImages(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]models.Image, error)
}

type mediaRepository struct {
	db database.DB
}

// NewMediaRepository creates a new instance of MediaRepository.
func NewMediaRepository(db database.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) InsertAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, assets []models.StoredAsset) ([]InsertedAsset, error) {
	inserted := make([]InsertedAsset, 0, len(assets))
	if len(assets) == 0 {
		return inserted, nil
	}

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var next int
		err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM %s WHERE property_id = $1`, category.Table()),
			propertyID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read %s sort order: %w", category, err)
		}

		featuredSeen := false
		for _, a := range assets {
			var id uuid.UUID
			var storagePath *string
			if a.StoragePath != "" {
				storagePath = &a.StoragePath
			}

			switch category {
			case models.MediaImages:
				featured := a.IsFeatured && !featuredSeen
				if featured {
					featuredSeen = true
					if _, err := tx.Exec(ctx,
						`UPDATE property_images SET is_featured = false WHERE property_id = $1 AND is_featured = true`,
						propertyID); err != nil {
						return fmt.Errorf("failed to clear featured image: %w", err)
					}
				}
				err = tx.QueryRow(ctx, `
					INSERT INTO property_images (property_id, url, storage_path, is_featured, sort_order)
					VALUES ($1, $2, $3, $4, $5)
					RETURNING id`,
					propertyID, a.URL, storagePath, featured, next,
				).Scan(&id)
			case models.MediaDocuments:
				err = tx.QueryRow(ctx, `
					INSERT INTO property_documents (property_id, url, storage_path, title, document_type_id, sort_order)
					VALUES ($1, $2, $3, $4, $5, $6)
					RETURNING id`,
					propertyID, a.URL, storagePath, a.Title, a.DocumentTypeID, next,
				).Scan(&id)
			case models.MediaFloorPlans:
				err = tx.QueryRow(ctx, `
					INSERT INTO property_floor_plans (property_id, url, storage_path, title, size_label, sort_order)
					VALUES ($1, $2, $3, $4, $5, $6)
					RETURNING id`,
					propertyID, a.URL, storagePath, a.Title, a.SizeLabel, next,
				).Scan(&id)
			default:
				return fmt.Errorf("unknown media category %q", category)
			}
			if err != nil {
				return classify(err, fmt.Sprintf("failed to insert %s row", category))
			}

			inserted = append(inserted, InsertedAsset{ID: id, URL: a.URL, SortOrder: next})
			next++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *mediaRepository) DeleteAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, ids []uuid.UUID) (*DeletedAssets, error) {
	deleted := &DeletedAssets{StoragePaths: []string{}}
	if len(ids) == 0 {
		return deleted, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE property_id = $1 AND id = ANY($2::uuid[])
		RETURNING storage_path`, category.Table())
	rows, err := r.db.Query(ctx, query, propertyID, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", category, err)
	}
	defer rows.Close()

	for rows.Next() {
		var path *string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan %s storage path: %w", category, err)
		}
		deleted.Count++
		if path != nil && *path != "" {
			deleted.StoragePaths = append(deleted.StoragePaths, *path)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted %s: %w", category, err)
	}
	return deleted, nil
}

func (r *mediaRepository) ListImages(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]models.Image, error) {
	return listImages(ctx, r.db, propertyIDs)
}

func listImages(ctx context.Context, db database.DB, propertyIDs []uuid.UUID) (map[uuid.UUID][]models.Image, error) {
	images := make(map[uuid.UUID][]models.Image, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return images, nil
	}

	rows, err := db.Query(ctx, `
		SELECT id, property_id, url, COALESCE(storage_path, ''), is_featured, sort_order, created_at
		FROM property_images
		WHERE property_id = ANY($1::uuid[])`, uuidStrings(propertyIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.Image
		if err := rows.Scan(
			&img.ID, &img.PropertyID, &img.URL, &img.StoragePath, &img.IsFeatured, &img.SortOrder, &img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images[img.PropertyID] = append(images[img.PropertyID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}
	return images, nil
}

func listDocuments(ctx context.Context, db database.DB, propertyID uuid.UUID) ([]models.Document, error) {
	rows, err := db.Query(ctx, `
		SELECT id, property_id, url, COALESCE(storage_path, ''), title, document_type_id, sort_order, created_at
		FROM property_documents
		WHERE property_id = $1
		ORDER BY sort_order, created_at`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.PropertyID, &d.URL, &d.StoragePath, &d.Title, &d.DocumentTypeID, &d.SortOrder, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

func listFloorPlans(ctx context.Context, db database.DB, propertyID uuid.UUID) ([]models.FloorPlan, error) {
	rows, err := db.Query(ctx, `
		SELECT id, property_id, url, COALESCE(storage_path, ''), title, size_label, sort_order, created_at
		FROM property_floor_plans
		WHERE property_id = $1
		ORDER BY sort_order, created_at`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query floor plans: %w", err)
	}
	defer rows.Close()

	plans := []models.FloorPlan{}
	for rows.Next() {
		var f models.FloorPlan
		if err := rows.Scan(
			&f.ID, &f.PropertyID, &f.URL, &f.StoragePath, &f.Title, &f.SizeLabel, &f.SortOrder, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan floor plan: %w", err)
		}
		plans = append(plans, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating floor plans: %w", err)
	}
	return plans, nil
}
