package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PropertyDraft is the snapshot of an in-progress creation form. File
// references cannot be represented and are always empty.
type PropertyDraft struct {
	SavedAt             time.Time                 `json:"savedAt"`
	Description         *string                   `json:"description,omitempty"`
	Slug                *string                   `json:"slug,omitempty"`
	StartingPrice       *float64                  `json:"startingPrice,omitempty"`
	PriceRange          *string                   `json:"priceRange,omitempty"`
	Bedrooms            *int                      `json:"bedrooms,omitempty"`
	Bathrooms           *int                      `json:"bathrooms,omitempty"`
	SizeRange           *string                   `json:"sizeRange,omitempty"`
	DeveloperID         *uuid.UUID                `json:"developerId,omitempty"`
	CommunityID         *uuid.UUID                `json:"communityId,omitempty"`
	PropertyTypeID      *uuid.UUID                `json:"propertyTypeId,omitempty"`
	StatusID            *uuid.UUID                `json:"statusId,omitempty"`
	Latitude            *float64                  `json:"latitude,omitempty"`
	Longitude           *float64                  `json:"longitude,omitempty"`
	SEOTitle            *string                   `json:"seoTitle,omitempty"`
	SEODescription      *string                   `json:"seoDescription,omitempty"`
	SEOKeywords         *string                   `json:"seoKeywords,omitempty"`
	Title               string                    `json:"title"`
	Amenities           []uuid.UUID               `json:"amenities"`
	Features            []uuid.UUID               `json:"features"`
	Views               []uuid.UUID               `json:"views"`
	NearbyPoints        []NearbyPointInput        `json:"nearbyPoints"`
	ConstructionUpdates []ConstructionUpdateInput `json:"constructionUpdates"`
	Images              []string                  `json:"images"`
	Documents           []string                  `json:"documents"`
	FloorPlans          []string                  `json:"floorPlans"`
	IsFeatured          bool                      `json:"isFeatured"`
}

// HasSignal reports whether the draft carries enough to be worth persisting.
func (d *PropertyDraft) HasSignal() bool {
	return strings.TrimSpace(d.Title) != ""
}

// Normalize strips file references and replaces nil collections with empty
// ones so clients always receive arrays.
func (d *PropertyDraft) Normalize() {
	d.Images = []string{}
	d.Documents = []string{}
	d.FloorPlans = []string{}
	if d.Amenities == nil {
		d.Amenities = []uuid.UUID{}
	}
	if d.Features == nil {
		d.Features = []uuid.UUID{}
	}
	if d.Views == nil {
		d.Views = []uuid.UUID{}
	}
	if d.NearbyPoints == nil {
		d.NearbyPoints = []NearbyPointInput{}
	}
	if d.ConstructionUpdates == nil {
		d.ConstructionUpdates = []ConstructionUpdateInput{}
	}
}
