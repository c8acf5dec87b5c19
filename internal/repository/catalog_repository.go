package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// CatalogPage is one page of catalog rows with the exact count of rows
// matching the filter.
type CatalogPage struct {
	Items []models.PropertySummary
	Total int
}

// CatalogRepository executes catalog reads over live properties.
type CatalogRepository interface {
	// Search runs the count and the paged select with the same filter, then
	// loads images and amenity ids for the rows on the page. The amenity
	// list of the query is not applied here.
	Search(ctx context.Context, q CatalogQuery) (*CatalogPage, error)
}

type catalogRepository struct {
	db database.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Search(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	where, args := BuildCatalogFilter(q)

	var total int
	countSQL := "SELECT COUNT(*) FROM properties p " + where
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count catalog rows: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())
	pageSQL := fmt.Sprintf(`
		SELECT
			p.id, p.title, p.slug, p.starting_price, p.price_range,
			p.bedrooms, p.bathrooms, p.size_range, p.latitude, p.longitude,
			p.community_id, c.name,
			p.developer_id, d.name,
			p.property_type_id, t.name,
			p.status_id, s.name,
			p.is_featured, p.created_at
		FROM properties p
		LEFT JOIN communities c ON c.id = p.community_id
		LEFT JOIN developers d ON d.id = p.developer_id
		LEFT JOIN property_types t ON t.id = p.property_type_id
		LEFT JOIN property_statuses s ON s.id = p.status_id
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		where, BuildCatalogOrder(q), len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog page: %w", err)
	}
	defer rows.Close()

	items := []models.PropertySummary{}
	for rows.Next() {
		var s models.PropertySummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Slug, &s.StartingPrice, &s.PriceRange,
			&s.Bedrooms, &s.Bathrooms, &s.SizeRange, &s.Latitude, &s.Longitude,
			&s.CommunityID, &s.CommunityName,
			&s.DeveloperID, &s.DeveloperName,
			&s.PropertyTypeID, &s.PropertyTypeName,
			&s.StatusID, &s.StatusName,
			&s.IsFeatured, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return &CatalogPage{Items: items, Total: total}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.ID)
	}

	images, err := listImages(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	amenities, err := listAmenitySets(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Images = images[items[i].ID]
		if items[i].Images == nil {
			items[i].Images = []models.Image{}
		}
		items[i].AmenityIDs = amenities[items[i].ID]
		if items[i].AmenityIDs == nil {
			items[i].AmenityIDs = []uuid.UUID{}
		}
	}

	return &CatalogPage{Items: items, Total: total}, nil
}
