package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MediaCategory names one of the three asset flavors.
type MediaCategory string

const (
	MediaImages     MediaCategory = "images"
	MediaDocuments  MediaCategory = "documents"
	MediaFloorPlans MediaCategory = "floor-plans"
)

// MediaCategories lists every category in reconciliation order.
var MediaCategories = []MediaCategory{MediaImages, MediaDocuments, MediaFloorPlans}

var mediaTables = map[MediaCategory]string{
	MediaImages:     "property_images",
	MediaDocuments:  "property_documents",
	MediaFloorPlans: "property_floor_plans",
}

var mediaBuckets = map[MediaCategory]string{
	MediaImages:     "property-images",
	MediaDocuments:  "property-documents",
	MediaFloorPlans: "property-floor-plans",
}

// ParseMediaCategory converts a path segment into a MediaCategory.
func ParseMediaCategory(s string) (MediaCategory, error) {
	c := MediaCategory(s)
	if _, ok := mediaTables[c]; !ok {
		return "", fmt.Errorf("unknown media category %q", s)
	}
	return c, nil
}

// Table is the table holding assets of this category.
func (c MediaCategory) Table() string {
	return mediaTables[c]
}

// Bucket is the storage bucket receiving files of this category.
func (c MediaCategory) Bucket() string {
	return mediaBuckets[c]
}

// Image is a property photo. At most one image per property is featured.
type Image struct {
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"createdAt"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	StoragePath string    `gorm:"type:text" json:"-"`
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	SortOrder   int       `gorm:"not null;default:0" json:"sortOrder"`
	IsFeatured  bool      `gorm:"not null;default:false" json:"isFeatured"`
}

func (Image) TableName() string { return "property_images" }

// Document is a downloadable file such as a brochure.
type Document struct {
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"createdAt"`
	Title          *string    `gorm:"size:255" json:"title,omitempty"`
	DocumentTypeID *uuid.UUID `gorm:"type:uuid" json:"documentTypeId,omitempty"`
	URL            string     `gorm:"type:text;not null" json:"url"`
	StoragePath    string     `gorm:"type:text" json:"-"`
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"propertyId"`
	SortOrder      int        `gorm:"not null;default:0" json:"sortOrder"`
}

func (Document) TableName() string { return "property_documents" }

// FloorPlan is a plan drawing with a size label such as "2BR | 1,200 sqft".
type FloorPlan struct {
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"createdAt"`
	Title       *string   `gorm:"size:255" json:"title,omitempty"`
	SizeLabel   *string   `gorm:"size:100" json:"sizeLabel,omitempty"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	StoragePath string    `gorm:"type:text" json:"-"`
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	SortOrder   int       `gorm:"not null;default:0" json:"sortOrder"`
}

func (FloorPlan) TableName() string { return "property_floor_plans" }

// StoredAsset is a new asset whose bytes already live in storage and only
// needs a row. Category-specific fields are ignored by other categories.
type StoredAsset struct {
	Title          *string    `json:"title,omitempty"`
	DocumentTypeID *uuid.UUID `json:"documentTypeId,omitempty"`
	SizeLabel      *string    `json:"sizeLabel,omitempty"`
	URL            string     `json:"url" validate:"required,url"`
	StoragePath    string     `json:"storagePath,omitempty"`
	IsFeatured     bool       `json:"isFeatured,omitempty"`
}

// UploadMeta describes one file sent with a multipart request. Entries pair
// with the files of their category by position.
type UploadMeta struct {
	Title          *string    `json:"title,omitempty"`
	DocumentTypeID *uuid.UUID `json:"documentTypeId,omitempty"`
	SizeLabel      *string    `json:"sizeLabel,omitempty"`
	IsFeatured     bool       `json:"isFeatured,omitempty"`
}

// Asset returns the row fields carried by the metadata. URL and storage
// path are filled in once the bytes are stored.
func (m UploadMeta) Asset() StoredAsset {
	return StoredAsset{
		Title:          m.Title,
		DocumentTypeID: m.DocumentTypeID,
		SizeLabel:      m.SizeLabel,
		IsFeatured:     m.IsFeatured,
	}
}

// OrderImages returns images with any featured image first, followed by the
// rest in ascending sort order. The input slice is not modified.
func OrderImages(images []Image) []Image {
	ordered := make([]Image, len(images))
	copy(ordered, images)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsFeatured != ordered[j].IsFeatured {
			return ordered[i].IsFeatured
		}
		return ordered[i].SortOrder < ordered[j].SortOrder
	})
	return ordered
}
