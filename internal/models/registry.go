package models

// Registry lists every table owned by the schema, in dependency order.
var Registry = []interface{}{
	&Developer{},
	&Community{},
	&PropertyType{},
	&PropertyStatus{},
	&Amenity{},
	&Feature{},
	&ViewType{},
	&NearbyCategory{},
	&DocumentType{},
	&Profile{},
	&Property{},
	&PropertyAmenity{},
	&PropertyFeature{},
	&PropertyView{},
	&NearbyPoint{},
	&ConstructionUpdate{},
	&Image{},
	&Document{},
	&FloorPlan{},
}
