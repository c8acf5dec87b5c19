package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Relation names a many-to-many association set of a property.
type Relation string

const (
	RelationAmenities Relation = "amenities"
	RelationFeatures  Relation = "features"
	RelationViews     Relation = "views"
)

// Relations lists every association in the order they are reconciled.
var Relations = []Relation{RelationAmenities, RelationFeatures, RelationViews}

type relationSchema struct {
	table     string
	refColumn string
}

var relationSchemas = map[Relation]relationSchema{
	RelationAmenities: {table: "property_amenities", refColumn: "amenity_id"},
	RelationFeatures:  {table: "property_features", refColumn: "feature_id"},
	RelationViews:     {table: "property_views", refColumn: "view_type_id"},
}

// ParseRelation converts a path segment into a Relation.
func ParseRelation(s string) (Relation, error) {
	r := Relation(s)
	if _, ok := relationSchemas[r]; !ok {
		return "", fmt.Errorf("unknown relation %q", s)
	}
	return r, nil
}

// Table is the join table backing the relation.
func (r Relation) Table() string {
	return relationSchemas[r].table
}

// RefColumn is the join column referencing the vocabulary row.
func (r Relation) RefColumn() string {
	return relationSchemas[r].refColumn
}

// PropertyAmenity is a pure join row.
type PropertyAmenity struct {
	PropertyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	AmenityID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (PropertyAmenity) TableName() string { return "property_amenities" }

// PropertyFeature is a pure join row.
type PropertyFeature struct {
	PropertyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FeatureID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (PropertyFeature) TableName() string { return "property_features" }

// PropertyView is a pure join row.
type PropertyView struct {
	PropertyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ViewTypeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (PropertyView) TableName() string { return "property_views" }

// NearbyPoint is a point of interest owned exclusively by one property.
type NearbyPoint struct {
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"createdAt"`
	DistanceKm      *float64  `gorm:"column:distance_km" json:"distanceKm,omitempty"`
	DistanceMinutes *float64  `gorm:"column:distance_minutes" json:"distanceMinutes,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID      uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	CategoryID      uuid.UUID `gorm:"type:uuid;not null" json:"categoryId"`
}

func (NearbyPoint) TableName() string { return "property_nearby_points" }

// ConstructionUpdate is a dated progress entry owned by one property.
type ConstructionUpdate struct {
	UpdateDate         time.Time `gorm:"type:date;not null" json:"updateDate"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdateText         string    `gorm:"type:text;not null" json:"text"`
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PropertyID         uuid.UUID `gorm:"type:uuid;not null;index" json:"propertyId"`
	ProgressPercentage int       `gorm:"not null;default:0;check:progress_percentage BETWEEN 0 AND 100" json:"progressPercentage"`
}

func (ConstructionUpdate) TableName() string { return "property_construction_updates" }

// NearbyPointInput is a client descriptor for a nearby point. Entries from
// dynamic form lists may be partially filled.
type NearbyPointInput struct {
	CategoryID      *uuid.UUID `json:"categoryId"`
	DistanceKm      *float64   `json:"distanceKm"`
	DistanceMinutes *float64   `json:"distanceMinutes"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	Name            string     `json:"name"`
}

// ConstructionUpdateInput is a client descriptor for a construction update.
type ConstructionUpdateInput struct {
	UpdateDate         *Date  `json:"updateDate"`
	ProgressPercentage *int   `json:"progressPercentage"`
	Text               string `json:"text"`
}
