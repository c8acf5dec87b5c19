package repository

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalogQuery_Defaults(t *testing.T) {
	q := ParseCatalogQuery(url.Values{})

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.Limit)
	assert.Equal(t, "created_at", q.SortBy)
	assert.Equal(t, "desc", q.SortDir)
	assert.Empty(t, q.Bedrooms)
	assert.False(t, q.HasAmenityFilter())
	assert.Equal(t, 0, q.Offset())
}

func TestParseCatalogQuery_Paging(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{name: "valid values", page: "3", limit: "20", wantPage: 3, wantLimit: 20},
		{name: "page below minimum", page: "0", limit: "10", wantPage: 1, wantLimit: 10},
		{name: "negative page", page: "-4", limit: "10", wantPage: 1, wantLimit: 10},
		{name: "limit capped", page: "1", limit: "500", wantPage: 1, wantLimit: MaxPageSize},
		{name: "garbage falls back", page: "abc", limit: "xyz", wantPage: 1, wantLimit: DefaultPageSize},
		{name: "zero limit falls back", page: "2", limit: "0", wantPage: 2, wantLimit: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseCatalogQuery(url.Values{"page": {tt.page}, "limit": {tt.limit}})
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
		})
	}
}

func TestParseCatalogQuery_Sorting(t *testing.T) {
	tests := []struct {
		sortBy  string
		sortDir string
		wantBy  string
		wantDir string
	}{
		{sortBy: "starting_price", sortDir: "asc", wantBy: "starting_price", wantDir: "asc"},
		{sortBy: "title", sortDir: "DESC", wantBy: "title", wantDir: "desc"},
		{sortBy: "password", sortDir: "sideways", wantBy: "created_at", wantDir: "desc"},
		{sortBy: "p.id; DROP TABLE properties", sortDir: "", wantBy: "created_at", wantDir: "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			q := ParseCatalogQuery(url.Values{"sortBy": {tt.sortBy}, "sortDir": {tt.sortDir}})
			assert.Equal(t, tt.wantBy, q.SortBy)
			assert.Equal(t, tt.wantDir, q.SortDir)
		})
	}
}

func TestParseCatalogQuery_Bedrooms(t *testing.T) {
	tests := []struct {
		raw  string
		want []int
	}{
		{raw: "any", want: nil},
		{raw: "", want: nil},
		{raw: "2", want: []int{2}},
		{raw: "4", want: []int{4}},
		{raw: "5+", want: []int{5, 6, 7, 8}},
		{raw: "5", want: []int{5, 6, 7, 8}},
		{raw: "5 ", want: []int{5, 6, 7, 8}},
		{raw: "9", want: nil},
		{raw: "studio", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := ParseCatalogQuery(url.Values{"bedrooms": {tt.raw}})
			assert.Equal(t, tt.want, q.Bedrooms)
		})
	}
}

func TestParseCatalogQuery_BedroomsFromRawURL(t *testing.T) {
	tests := []struct {
		target string
		want   []int
	}{
		{target: "/api/v1/properties?bedrooms=5+", want: []int{5, 6, 7, 8}},
		{target: "/api/v1/properties?bedrooms=5%2B", want: []int{5, 6, 7, 8}},
		{target: "/api/v1/properties?bedrooms=3", want: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			q := ParseCatalogQuery(req.URL.Query())
			assert.Equal(t, tt.want, q.Bedrooms)

			where, args := BuildCatalogFilter(q)
			assert.Contains(t, where, "p.bedrooms")
			assert.Len(t, args, 1)
		})
	}
}

func TestParseCatalogQuery_HugePageKeepsOffsetPositive(t *testing.T) {
	tests := []struct {
		name string
		page string
		want int
	}{
		{name: "max int", page: strconv.Itoa(math.MaxInt), want: MaxPage},
		{name: "beyond int range", page: "99999999999999999999999", want: MaxPage},
		{name: "hugely negative", page: "-99999999999999999999999", want: DefaultPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseCatalogQuery(url.Values{"page": {tt.page}, "limit": {"50"}})
			assert.Equal(t, tt.want, q.Page)
			assert.GreaterOrEqual(t, q.Offset(), 0)
		})
	}
}

func TestParseCatalogQuery_ReferenceFilters(t *testing.T) {
	community := uuid.New()
	q := ParseCatalogQuery(url.Values{
		"community":    {community.String()},
		"developer":    {"all"},
		"propertyType": {"not-a-uuid"},
	})

	require.NotNil(t, q.CommunityID)
	assert.Equal(t, community, *q.CommunityID)
	assert.Nil(t, q.DeveloperID)
	assert.Nil(t, q.PropertyTypeID)
	assert.Nil(t, q.StatusID)
}

func TestParseCatalogQuery_AmenitiesAndFlags(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q := ParseCatalogQuery(url.Values{
		"amenities":  {a.String() + ", " + b.String() + ",bogus," + a.String()},
		"isFeatured": {"true"},
		"minPrice":   {"500000"},
		"maxPrice":   {"-1"},
	})

	assert.Equal(t, []uuid.UUID{a, b}, q.Amenities)
	assert.True(t, q.HasAmenityFilter())
	assert.True(t, q.FeaturedOnly)
	require.NotNil(t, q.MinPrice)
	assert.Equal(t, 500000.0, *q.MinPrice)
	assert.Nil(t, q.MaxPrice)

	assert.False(t, ParseCatalogQuery(url.Values{"isFeatured": {"yes"}}).FeaturedOnly)
	assert.False(t, q.MatchNone)
}

func TestParseCatalogQuery_UnreadableAmenitiesMatchNothing(t *testing.T) {
	q := ParseCatalogQuery(url.Values{"amenities": {"pool,gym"}})

	assert.True(t, q.MatchNone)
	assert.False(t, q.HasAmenityFilter())

	where, _ := BuildCatalogFilter(q)
	assert.True(t, strings.HasSuffix(where, " AND false"), where)

	assert.False(t, ParseCatalogQuery(url.Values{"amenities": {" "}}).MatchNone)
}

func TestBuildCatalogFilter_AlwaysExcludesSoftDeleted(t *testing.T) {
	where, args := BuildCatalogFilter(ParseCatalogQuery(url.Values{}))

	assert.Equal(t, "WHERE p.is_deleted = false", where)
	assert.Empty(t, args)
}

func TestBuildCatalogFilter_AllFilters(t *testing.T) {
	community, developer, propertyType, status := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	q := ParseCatalogQuery(url.Values{
		"search":       {"sea view"},
		"community":    {community.String()},
		"developer":    {developer.String()},
		"propertyType": {propertyType.String()},
		"status":       {status.String()},
		"bedrooms":     {"5+"},
		"minPrice":     {"500000"},
		"maxPrice":     {"1000000"},
		"isFeatured":   {"true"},
	})

	where, args := BuildCatalogFilter(q)

	assert.Equal(t, "WHERE p.is_deleted = false"+
		" AND (p.title ILIKE $1 OR p.description ILIKE $1)"+
		" AND p.community_id = $2"+
		" AND p.developer_id = $3"+
		" AND p.property_type_id = $4"+
		" AND p.status_id = $5"+
		" AND p.bedrooms = ANY($6::int[])"+
		" AND p.starting_price >= $7"+
		" AND p.starting_price <= $8"+
		" AND p.is_featured = true", where)
	assert.Equal(t, []any{
		"%sea view%", community, developer, propertyType, status,
		[]int{5, 6, 7, 8}, 500000.0, 1000000.0,
	}, args)
}

func TestBuildCatalogFilter_SingleBedroomUsesEquality(t *testing.T) {
	where, args := BuildCatalogFilter(ParseCatalogQuery(url.Values{"bedrooms": {"3"}}))

	assert.True(t, strings.HasSuffix(where, "p.bedrooms = $1"))
	assert.Equal(t, []any{3}, args)
}

func TestBuildCatalogFilter_EscapesWildcards(t *testing.T) {
	_, args := BuildCatalogFilter(ParseCatalogQuery(url.Values{"search": {`100% off_plan\`}}))

	require.Len(t, args, 1)
	assert.Equal(t, `%100\% off\_plan\\%`, args[0])
}

func TestBuildCatalogFilter_AmenitiesNotInClause(t *testing.T) {
	where, args := BuildCatalogFilter(ParseCatalogQuery(url.Values{"amenities": {uuid.NewString()}}))

	assert.NotContains(t, where, "amenit")
	assert.Empty(t, args)
}

func TestBuildCatalogOrder(t *testing.T) {
	tests := []struct {
		sortBy  string
		sortDir string
		want    string
	}{
		{sortBy: "", sortDir: "", want: "ORDER BY p.created_at DESC NULLS LAST"},
		{sortBy: "created_at", sortDir: "asc", want: "ORDER BY p.created_at ASC NULLS LAST"},
		{sortBy: "starting_price", sortDir: "asc", want: "ORDER BY p.starting_price ASC NULLS LAST, p.created_at DESC"},
		{sortBy: "bedrooms", sortDir: "desc", want: "ORDER BY p.bedrooms DESC NULLS LAST, p.created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			q := ParseCatalogQuery(url.Values{"sortBy": {tt.sortBy}, "sortDir": {tt.sortDir}})
			assert.Equal(t, tt.want, BuildCatalogOrder(q))
		})
	}
}
