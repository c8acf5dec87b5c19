package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// propertyColumns is the scan order used by scanProperty.
const propertyColumns = `
	p.id,
	p.title,
	p.slug,
	p.description,
	p.starting_price,
	p.price_range,
	p.bedrooms,
	p.bathrooms,
	p.size_range,
	p.developer_id,
	p.community_id,
	p.property_type_id,
	p.status_id,
	p.latitude,
	p.longitude,
	p.is_featured,
	p.seo_title,
	p.seo_description,
	p.seo_keywords,
	p.is_deleted,
	p.deleted_at,
	p.created_by,
	p.created_at,
	p.updated_at`

// PropertyChanges carries a partial scalar update. Nil fields are left untouched.
type PropertyChanges struct {
	Title          *string
	Slug           *string
	Description    *string
	StartingPrice  *float64
	PriceRange     *models.Range
	Bedrooms       *int
	Bathrooms      *int
	SizeRange      *models.Range
	DeveloperID    *uuid.UUID
	CommunityID    *uuid.UUID
	PropertyTypeID *uuid.UUID
	StatusID       *uuid.UUID
	Latitude       *float64
	Longitude      *float64
	IsFeatured     *bool
	SEOTitle       *string
	SEODescription *string
	SEOKeywords    *string
}

// assignments renders the SET list for the non-nil fields. Placeholders
// start at $1.
func (c PropertyChanges) assignments() ([]string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if c.Title != nil {
		add("title", *c.Title)
	}
	if c.Slug != nil {
		add("slug", *c.Slug)
	}
	if c.Description != nil {
		add("description", *c.Description)
	}
	if c.StartingPrice != nil {
		add("starting_price", *c.StartingPrice)
	}
	if c.PriceRange != nil {
		add("price_range", *c.PriceRange)
	}
	if c.Bedrooms != nil {
		add("bedrooms", *c.Bedrooms)
	}
	if c.Bathrooms != nil {
		add("bathrooms", *c.Bathrooms)
	}
	if c.SizeRange != nil {
		add("size_range", *c.SizeRange)
	}
	if c.DeveloperID != nil {
		add("developer_id", *c.DeveloperID)
	}
	if c.CommunityID != nil {
		add("community_id", *c.CommunityID)
	}
	if c.PropertyTypeID != nil {
		add("property_type_id", *c.PropertyTypeID)
	}
	if c.StatusID != nil {
		add("status_id", *c.StatusID)
	}
	if c.Latitude != nil {
		add("latitude", *c.Latitude)
	}
	if c.Longitude != nil {
		add("longitude", *c.Longitude)
	}
	if c.IsFeatured != nil {
		add("is_featured", *c.IsFeatured)
	}
	if c.SEOTitle != nil {
		add("seo_title", *c.SEOTitle)
	}
	if c.SEODescription != nil {
		add("seo_description", *c.SEODescription)
	}
	if c.SEOKeywords != nil {
		add("seo_keywords", *c.SEOKeywords)
	}

	return sets, args
}

// PropertyRepository defines data access for the scalar property row and the
// expanded aggregate reads.
type PropertyRepository interface {
	// Create inserts the scalar row and fills in the generated id and timestamps.
	Create(ctx context.Context, p *models.Property) error

	// GetByID returns the live (not soft-deleted) property.
	// Returns nil, nil if no such property exists.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)

	// Update applies a partial scalar update and returns the committed row.
	// Returns nil, nil if the property does not exist or is soft-deleted.
	Update(ctx context.Context, id uuid.UUID, changes PropertyChanges) (*models.Property, error)

	// Delete removes the association rows and then the property row, in one
	// transaction. Returns pgx.ErrNoRows when nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	// SoftDelete removes the association rows and flags the property deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// GetAggregate returns the property with all relations expanded.
	// Returns nil, nil if not found or soft-deleted.
	GetAggregate(ctx context.Context, id uuid.UUID) (*models.PropertyAggregate, error)

	// GetDetails returns documents, floor plans and construction updates only.
	// Returns nil, nil if not found or soft-deleted.
	GetDetails(ctx context.Context, id uuid.UUID) (*models.PropertyDetails, error)
}

type propertyRepository struct {
	db database.DB
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db database.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func scanProperty(row pgx.Row, extra ...any) (*models.Property, error) {
	var p models.Property
	dest := []any{
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Description,
		&p.StartingPrice,
		&p.PriceRange,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.SizeRange,
		&p.DeveloperID,
		&p.CommunityID,
		&p.PropertyTypeID,
		&p.StatusID,
		&p.Latitude,
		&p.Longitude,
		&p.IsFeatured,
		&p.SEOTitle,
		&p.SEODescription,
		&p.SEOKeywords,
		&p.IsDeleted,
		&p.DeletedAt,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties AS p (
			title, slug, description, starting_price, price_range,
			bedrooms, bathrooms, size_range,
			developer_id, community_id, property_type_id, status_id,
			latitude, longitude, is_featured,
			seo_title, seo_description, seo_keywords,
			created_by
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18,
			$19
		)
		RETURNING` + propertyColumns

	created, err := scanProperty(r.db.QueryRow(ctx, query,
		p.Title, p.Slug, p.Description, p.StartingPrice, p.PriceRange,
		p.Bedrooms, p.Bathrooms, p.SizeRange,
		p.DeveloperID, p.CommunityID, p.PropertyTypeID, p.StatusID,
		p.Latitude, p.Longitude, p.IsFeatured,
		p.SEOTitle, p.SEODescription, p.SEOKeywords,
		p.CreatedBy,
	))
	if err != nil {
		return classify(err, "failed to insert property")
	}

	*p = *created
	return nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT` + propertyColumns + `
		FROM properties p
		WHERE p.id = $1 AND p.is_deleted = false`

	p, err := scanProperty(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", id, err)
	}
	return p, nil
}

func (r *propertyRepository) Update(ctx context.Context, id uuid.UUID, changes PropertyChanges) (*models.Property, error) {
	sets, args := changes.assignments()
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE properties AS p
		SET %s
		WHERE p.id = $%d AND p.is_deleted = false
		RETURNING`+propertyColumns, strings.Join(sets, ", "), len(args))

	p, err := scanProperty(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err, fmt.Sprintf("failed to update property %s", id))
	}
	return p, nil
}

func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := clearAssociations(ctx, tx, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
		if err != nil {
			return classify(err, fmt.Sprintf("failed to delete property %s", id))
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *propertyRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := clearAssociations(ctx, tx, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE properties
			SET is_deleted = true, deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND is_deleted = false`, id)
		if err != nil {
			return classify(err, fmt.Sprintf("failed to soft-delete property %s", id))
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *propertyRepository) GetAggregate(ctx context.Context, id uuid.UUID) (*models.PropertyAggregate, error) {
	query := `SELECT` + propertyColumns + `,
			d.name,
			c.name,
			t.name,
			s.name
		FROM properties p
		LEFT JOIN developers d ON d.id = p.developer_id
		LEFT JOIN communities c ON c.id = p.community_id
		LEFT JOIN property_types t ON t.id = p.property_type_id
		LEFT JOIN property_statuses s ON s.id = p.status_id
		WHERE p.id = $1 AND p.is_deleted = false`

	agg := &models.PropertyAggregate{}
	p, err := scanProperty(r.db.QueryRow(ctx, query, id),
		&agg.DeveloperName, &agg.CommunityName, &agg.PropertyTypeName, &agg.StatusName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property aggregate %s: %w", id, err)
	}
	agg.Property = *p

	if agg.AmenityIDs, err = listAssociation(ctx, r.db, models.RelationAmenities, id); err != nil {
		return nil, err
	}
	if agg.FeatureIDs, err = listAssociation(ctx, r.db, models.RelationFeatures, id); err != nil {
		return nil, err
	}
	if agg.ViewIDs, err = listAssociation(ctx, r.db, models.RelationViews, id); err != nil {
		return nil, err
	}
	if agg.NearbyPoints, err = listNearbyPoints(ctx, r.db, id); err != nil {
		return nil, err
	}
	if agg.ConstructionUpdates, err = listConstructionUpdates(ctx, r.db, id); err != nil {
		return nil, err
	}

	images, err := listImages(ctx, r.db, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	agg.Images = models.OrderImages(images[id])
	if agg.Images == nil {
		agg.Images = []models.Image{}
	}

	if agg.Documents, err = listDocuments(ctx, r.db, id); err != nil {
		return nil, err
	}
	if agg.FloorPlans, err = listFloorPlans(ctx, r.db, id); err != nil {
		return nil, err
	}

	return agg, nil
}

func (r *propertyRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.PropertyDetails, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1 AND is_deleted = false)`, id,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check property %s: %w", id, err)
	}
	if !exists {
		return nil, nil
	}

	details := &models.PropertyDetails{PropertyID: id}
	if details.Documents, err = listDocuments(ctx, r.db, id); err != nil {
		return nil, err
	}
	if details.FloorPlans, err = listFloorPlans(ctx, r.db, id); err != nil {
		return nil, err
	}
	if details.ConstructionUpdates, err = listConstructionUpdates(ctx, r.db, id); err != nil {
		return nil, err
	}
	return details, nil
}
