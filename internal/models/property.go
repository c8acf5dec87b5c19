package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSlugLength bounds derived and supplied slugs.
const MaxSlugLength = 80

// Property is the root aggregate row of the catalog.
// Nullable columns use pointers to distinguish zero values from NULL.
type Property struct {
	CreatedAt      time.Time  `gorm:"column:created_at;not null;default:now();index" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null;default:now()" json:"updatedAt"`
	DeletedAt      *time.Time `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
	Description    *string    `gorm:"type:text;column:description" json:"description,omitempty"`
	StartingPrice  *float64   `gorm:"type:numeric(14,2);index;column:starting_price" json:"startingPrice,omitempty"`
	Bedrooms       *int       `gorm:"index;column:bedrooms" json:"bedrooms,omitempty"`
	Bathrooms      *int       `gorm:"column:bathrooms" json:"bathrooms,omitempty"`
	DeveloperID    *uuid.UUID `gorm:"type:uuid;index;column:developer_id" json:"developerId,omitempty"`
	CommunityID    *uuid.UUID `gorm:"type:uuid;index;column:community_id" json:"communityId,omitempty"`
	PropertyTypeID *uuid.UUID `gorm:"type:uuid;index;column:property_type_id" json:"propertyTypeId,omitempty"`
	StatusID       *uuid.UUID `gorm:"type:uuid;index;column:status_id" json:"statusId,omitempty"`
	Latitude       *float64   `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude      *float64   `gorm:"column:longitude" json:"longitude,omitempty"`
	SEOTitle       *string    `gorm:"size:255;column:seo_title" json:"seoTitle,omitempty"`
	SEODescription *string    `gorm:"type:text;column:seo_description" json:"seoDescription,omitempty"`
	SEOKeywords    *string    `gorm:"type:text;column:seo_keywords" json:"seoKeywords,omitempty"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid;index;column:created_by" json:"createdBy,omitempty"`
	Title          string     `gorm:"size:255;not null;column:title" json:"title"`
	Slug           string     `gorm:"size:80;not null;uniqueIndex;column:slug" json:"slug"`
	PriceRange     Range      `gorm:"type:text;column:price_range" json:"priceRange"`
	SizeRange      Range      `gorm:"type:text;column:size_range" json:"sizeRange"`
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	IsFeatured     bool       `gorm:"not null;default:false;index;column:is_featured" json:"isFeatured"`
	IsDeleted      bool       `gorm:"not null;default:false;index;column:is_deleted" json:"-"`
}

// TableName specifies the table name for GORM.
func (Property) TableName() string {
	return "properties"
}

// OwnedBy reports whether the property was created by userID.
func (p *Property) OwnedBy(userID uuid.UUID) bool {
	return p.CreatedBy != nil && *p.CreatedBy == userID
}

// PropertyAggregate is a property plus every relation expanded.
type PropertyAggregate struct {
	Property
	DeveloperName       *string              `json:"developerName,omitempty"`
	CommunityName       *string              `json:"communityName,omitempty"`
	PropertyTypeName    *string              `json:"propertyTypeName,omitempty"`
	StatusName          *string              `json:"statusName,omitempty"`
	AmenityIDs          []uuid.UUID          `json:"amenityIds"`
	FeatureIDs          []uuid.UUID          `json:"featureIds"`
	ViewIDs             []uuid.UUID          `json:"viewIds"`
	NearbyPoints        []NearbyPoint        `json:"nearbyPoints"`
	ConstructionUpdates []ConstructionUpdate `json:"constructionUpdates"`
	Images              []Image              `json:"images"`
	Documents           []Document           `json:"documents"`
	FloorPlans          []FloorPlan          `json:"floorPlans"`
}

// PropertyDetails is the lighter follow-up projection of an aggregate.
type PropertyDetails struct {
	Documents           []Document           `json:"documents"`
	FloorPlans          []FloorPlan          `json:"floorPlans"`
	ConstructionUpdates []ConstructionUpdate `json:"constructionUpdates"`
	PropertyID          uuid.UUID            `json:"propertyId"`
}

// PropertySummary is one row of a catalog page.
type PropertySummary struct {
	CreatedAt        time.Time   `json:"createdAt"`
	StartingPrice    *float64    `json:"startingPrice,omitempty"`
	Bedrooms         *int        `json:"bedrooms,omitempty"`
	Bathrooms        *int        `json:"bathrooms,omitempty"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	CommunityID      *uuid.UUID  `json:"communityId,omitempty"`
	CommunityName    *string     `json:"communityName,omitempty"`
	DeveloperID      *uuid.UUID  `json:"developerId,omitempty"`
	DeveloperName    *string     `json:"developerName,omitempty"`
	PropertyTypeID   *uuid.UUID  `json:"propertyTypeId,omitempty"`
	PropertyTypeName *string     `json:"propertyTypeName,omitempty"`
	StatusID         *uuid.UUID  `json:"statusId,omitempty"`
	StatusName       *string     `json:"statusName,omitempty"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	PriceRange       Range       `json:"priceRange"`
	SizeRange        Range       `json:"sizeRange"`
	Images           []Image     `json:"images"`
	AmenityIDs       []uuid.UUID `json:"amenityIds"`
	ID               uuid.UUID   `json:"id"`
	IsFeatured       bool        `json:"isFeatured"`
}
