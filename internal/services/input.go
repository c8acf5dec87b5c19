package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// PropertyInput is the desired state submitted by the editor form. On
// update, nil fields are left unchanged. For the relation sets a nil
// pointer means "do not change" and an empty slice means "clear".
type PropertyInput struct {
	Title          *string    `json:"title" validate:"omitempty,max=255"`
	Slug           *string    `json:"slug" validate:"omitempty,max=255"`
	Description    *string    `json:"description"`
	StartingPrice  *float64   `json:"startingPrice" validate:"omitempty,gte=0"`
	PriceRange     *string    `json:"priceRange" validate:"omitempty,minmax"`
	Bedrooms       *int       `json:"bedrooms" validate:"omitempty,gte=0,lte=50"`
	Bathrooms      *int       `json:"bathrooms" validate:"omitempty,gte=0,lte=50"`
	SizeRange      *string    `json:"sizeRange" validate:"omitempty,minmax"`
	DeveloperID    *uuid.UUID `json:"developerId"`
	CommunityID    *uuid.UUID `json:"communityId"`
	PropertyTypeID *uuid.UUID `json:"propertyTypeId"`
	StatusID       *uuid.UUID `json:"statusId"`
	Latitude       *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsFeatured     *bool      `json:"isFeatured"`
	SEOTitle       *string    `json:"seoTitle" validate:"omitempty,max=255"`
	SEODescription *string    `json:"seoDescription"`
	SEOKeywords    *string    `json:"seoKeywords"`

	Amenities *[]uuid.UUID `json:"amenities"`
	Features  *[]uuid.UUID `json:"features"`
	Views     *[]uuid.UUID `json:"views"`

	// Nested entries are appended. Incomplete ones are dropped.
	NearbyPoints        []models.NearbyPointInput        `json:"nearbyPoints"`
	ConstructionUpdates []models.ConstructionUpdateInput `json:"constructionUpdates"`

	Media MediaInput `json:"media"`
	// Uploads are files received with the request, keyed by category.
	Uploads map[models.MediaCategory][]media.Upload `json:"-" validate:"-"`
}

// MediaInput lists asset deletions and already stored assets per category.
type MediaInput struct {
	Images     MediaChanges `json:"images"`
	Documents  MediaChanges `json:"documents"`
	FloorPlans MediaChanges `json:"floorPlans"`
}

// MediaChanges are the instructions for one media category. Uploads holds
// the metadata of the files sent in the same request, in file order.
type MediaChanges struct {
	Delete  []uuid.UUID          `json:"delete"`
	Add     []models.StoredAsset `json:"add" validate:"dive"`
	Uploads []models.UploadMeta  `json:"uploads"`
}

func (m MediaInput) byCategory() map[models.MediaCategory]MediaChanges {
	return map[models.MediaCategory]MediaChanges{
		models.MediaImages:     m.Images,
		models.MediaDocuments:  m.Documents,
		models.MediaFloorPlans: m.FloorPlans,
	}
}

// UploadMeta returns the per-file metadata keyed by category.
func (m MediaInput) UploadMeta() map[models.MediaCategory][]models.UploadMeta {
	meta := make(map[models.MediaCategory][]models.UploadMeta)
	for category, changes := range m.byCategory() {
		if len(changes.Uploads) > 0 {
			meta[category] = changes.Uploads
		}
	}
	return meta
}

// relationSets returns the relation arrays keyed by relation so they never
// reach the scalar update.
func (in *PropertyInput) relationSets() map[models.Relation]*[]uuid.UUID {
	return map[models.Relation]*[]uuid.UUID{
		models.RelationAmenities: in.Amenities,
		models.RelationFeatures:  in.Features,
		models.RelationViews:     in.Views,
	}
}

// mediaJob builds the media job for propertyID. When includeDeletes is
// false deletion lists are ignored.
func (in *PropertyInput) mediaJob(propertyID uuid.UUID, includeDeletes bool) media.Job {
	job := media.NewJob(propertyID)
	for category, changes := range in.Media.byCategory() {
		cc := media.CategoryChanges{
			Uploads: in.Uploads[category],
			Stored:  changes.Add,
		}
		if includeDeletes {
			cc.Delete = distinct(changes.Delete)
		}
		if len(cc.Delete) > 0 || len(cc.Uploads) > 0 || len(cc.Stored) > 0 {
			job.Changes[category] = cc
		}
	}
	return job
}

// validate checks the struct tags, plus a non-blank title when required.
func (in *PropertyInput) validate(requireTitle bool) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Title == nil {
		if requireTitle {
			return invalidField("title", "is required")
		}
		return nil
	}
	if strings.TrimSpace(*in.Title) == "" {
		return invalidField("title", "is required")
	}
	return nil
}

// toProperty builds the scalar row for a create. The input must be valid.
func (in *PropertyInput) toProperty() *models.Property {
	p := &models.Property{
		Title:          strings.TrimSpace(*in.Title),
		Description:    in.Description,
		StartingPrice:  in.StartingPrice,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		DeveloperID:    in.DeveloperID,
		CommunityID:    in.CommunityID,
		PropertyTypeID: in.PropertyTypeID,
		StatusID:       in.StatusID,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		SEOKeywords:    in.SEOKeywords,
	}
	if in.PriceRange != nil {
		p.PriceRange, _ = models.ParseRange(*in.PriceRange)
	}
	if in.SizeRange != nil {
		p.SizeRange, _ = models.ParseRange(*in.SizeRange)
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	return p
}

// toChanges builds the partial scalar update. The input must be valid.
func (in *PropertyInput) toChanges() repository.PropertyChanges {
	c := repository.PropertyChanges{
		Description:    in.Description,
		StartingPrice:  in.StartingPrice,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		DeveloperID:    in.DeveloperID,
		CommunityID:    in.CommunityID,
		PropertyTypeID: in.PropertyTypeID,
		StatusID:       in.StatusID,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		IsFeatured:     in.IsFeatured,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		SEOKeywords:    in.SEOKeywords,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		c.Title = &title
	}
	if in.PriceRange != nil {
		r, _ := models.ParseRange(*in.PriceRange)
		c.PriceRange = &r
	}
	if in.SizeRange != nil {
		r, _ := models.ParseRange(*in.SizeRange)
		c.SizeRange = &r
	}
	return c
}

// EffectiveSlug resolves the slug of a property: the supplied slug when it
// is not blank, otherwise the title. Either is normalised and bounded to
// models.MaxSlugLength characters.
func EffectiveSlug(title string, supplied *string) string {
	source := title
	if supplied != nil && strings.TrimSpace(*supplied) != "" {
		source = *supplied
	}

	s := slug.Make(source)
	if len(s) > models.MaxSlugLength {
		s = strings.TrimRight(s[:models.MaxSlugLength], "-")
	}
	return s
}

// distinct removes duplicate ids, keeping the first occurrence.
func distinct(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
