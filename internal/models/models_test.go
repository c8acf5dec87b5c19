package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderImages_FeaturedFirst(t *testing.T) {
	images := []Image{
		{URL: "b", SortOrder: 1},
		{URL: "featured", SortOrder: 2, IsFeatured: true},
		{URL: "a", SortOrder: 0},
	}

	ordered := OrderImages(images)

	require.Len(t, ordered, 3)
	assert.Equal(t, "featured", ordered[0].URL)
	assert.Equal(t, "a", ordered[1].URL)
	assert.Equal(t, "b", ordered[2].URL)
	// input untouched
	assert.Equal(t, "b", images[0].URL)
}

func TestOrderImages_NoFeaturedFollowsSortOrder(t *testing.T) {
	images := []Image{
		{URL: "c", SortOrder: 5},
		{URL: "a", SortOrder: 0},
		{URL: "b", SortOrder: 3},
	}

	ordered := OrderImages(images)

	assert.Equal(t, []string{"a", "b", "c"}, []string{ordered[0].URL, ordered[1].URL, ordered[2].URL})
}

func TestOrderImages_Empty(t *testing.T) {
	assert.Empty(t, OrderImages(nil))
}

func TestParseRelation(t *testing.T) {
	r, err := ParseRelation("views")
	require.NoError(t, err)
	assert.Equal(t, "property_views", r.Table())
	assert.Equal(t, "view_type_id", r.RefColumn())

	_, err = ParseRelation("pools")
	assert.Error(t, err)
}

func TestParseMediaCategory(t *testing.T) {
	c, err := ParseMediaCategory("floor-plans")
	require.NoError(t, err)
	assert.Equal(t, "property_floor_plans", c.Table())
	assert.Equal(t, "property-floor-plans", c.Bucket())

	_, err = ParseMediaCategory("videos")
	assert.Error(t, err)
}

func TestPropertyOwnedBy(t *testing.T) {
	owner := uuid.New()
	p := &Property{CreatedBy: &owner}

	assert.True(t, p.OwnedBy(owner))
	assert.False(t, p.OwnedBy(uuid.New()))
	assert.False(t, (&Property{}).OwnedBy(owner))
}

func TestPropertyDraftNormalize(t *testing.T) {
	d := &PropertyDraft{
		Title:  "X",
		Images: []string{"blob:abc"},
	}

	d.Normalize()

	assert.True(t, d.HasSignal())
	assert.Equal(t, []string{}, d.Images)
	assert.Equal(t, []string{}, d.Documents)
	assert.Equal(t, []string{}, d.FloorPlans)
	assert.NotNil(t, d.Amenities)
	assert.NotNil(t, d.NearbyPoints)
	assert.False(t, (&PropertyDraft{Title: "   "}).HasSignal())
}
