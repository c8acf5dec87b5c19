package models

import "github.com/google/uuid"

// Vocabulary is the shared shape of the reference lookup tables. Their CRUD
// lives outside this service; the tables exist here for foreign keys and names.
type Vocabulary struct {
	Name string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
}

type Developer struct{ Vocabulary }

func (Developer) TableName() string { return "developers" }

type Community struct{ Vocabulary }

func (Community) TableName() string { return "communities" }

type PropertyType struct{ Vocabulary }

func (PropertyType) TableName() string { return "property_types" }

type PropertyStatus struct{ Vocabulary }

func (PropertyStatus) TableName() string { return "property_statuses" }

type Amenity struct{ Vocabulary }

func (Amenity) TableName() string { return "amenities" }

type Feature struct{ Vocabulary }

func (Feature) TableName() string { return "features" }

type ViewType struct{ Vocabulary }

func (ViewType) TableName() string { return "view_types" }

type NearbyCategory struct{ Vocabulary }

func (NearbyCategory) TableName() string { return "nearby_categories" }

type DocumentType struct{ Vocabulary }

func (DocumentType) TableName() string { return "document_types" }

// Profile maps an identity to its role.
type Profile struct {
	Role string    `gorm:"size:32;not null;default:'user'" json:"role"`
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

func (Profile) TableName() string { return "profiles" }
