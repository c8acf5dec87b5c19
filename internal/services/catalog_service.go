package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// CatalogResult is one catalog page plus its pagination metadata.
type CatalogResult struct {
	Items      []models.PropertySummary `json:"items"`
	Total      int                      `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	TotalPages int                      `json:"totalPages"`
}

// EmptyCatalogResult is the result returned alongside a catalog failure.
func EmptyCatalogResult() *CatalogResult {
	return &CatalogResult{
		Items:    []models.PropertySummary{},
		Page:     repository.DefaultPage,
		PageSize: repository.DefaultPageSize,
	}
}

// CatalogService defines the read path over the property collection.
type CatalogService interface {
	// List returns a filtered, sorted page. On failure it returns an empty
	// result with default metadata together with an ErrCatalogUnavailable
	// error, never a nil result.
	List(ctx context.Context, q repository.CatalogQuery) (*CatalogResult, error)
}

type catalogService struct {
	repo repository.CatalogRepository
	log  *logger.Logger
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(repo repository.CatalogRepository, log *logger.Logger) CatalogService {
	return &catalogService{repo: repo, log: log.WithComponent("catalog")}
}

func (s *catalogService) List(ctx context.Context, q repository.CatalogQuery) (*CatalogResult, error) {
	page, err := s.repo.Search(ctx, q)
	if err != nil {
		s.log.Error("Catalog query failed", err, map[string]interface{}{
			"page":    q.Page,
			"limit":   q.Limit,
			"sort_by": q.SortBy,
		})
		return EmptyCatalogResult(), fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	items := make([]models.PropertySummary, 0, len(page.Items))
	for _, item := range page.Items {
		item.Images = models.OrderImages(item.Images)
		items = append(items, item)
	}

	total := page.Total
	if q.HasAmenityFilter() {
		// The AND filter runs on the sliced page, so the metadata reflects
		// the surviving rows of this page only.
		items = filterByAmenities(items, q.Amenities)
		total = len(items)
		s.log.Debug("Applied amenity filter", map[string]interface{}{
			"requested": len(q.Amenities),
			"fetched":   len(page.Items),
			"kept":      len(items),
		})
	}

	return &CatalogResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

// filterByAmenities keeps the items whose amenity set contains every
// required id.
func filterByAmenities(items []models.PropertySummary, required []uuid.UUID) []models.PropertySummary {
	kept := make([]models.PropertySummary, 0, len(items))
	for _, item := range items {
		have := make(map[uuid.UUID]struct{}, len(item.AmenityIDs))
		for _, id := range item.AmenityIDs {
			have[id] = struct{}{}
		}

		superset := true
		for _, id := range required {
			if _, ok := have[id]; !ok {
				superset = false
				break
			}
		}
		if superset {
			kept = append(kept, item)
		}
	}
	return kept
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
