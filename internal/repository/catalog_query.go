package repository

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Catalog paging and sorting defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 50
	DefaultSortBy   = "created_at"
	SortAsc         = "asc"
	SortDesc        = "desc"

	// MaxPage keeps the row offset of the last page representable.
	MaxPage = math.MaxInt32
)

// sortColumns is the allow-list of sort keys.
var sortColumns = map[string]string{
	"created_at":     "p.created_at",
	"updated_at":     "p.updated_at",
	"starting_price": "p.starting_price",
	"title":          "p.title",
	"bedrooms":       "p.bedrooms",
}

// fivePlusBedrooms is the enumeration matched by the "5+" token.
var fivePlusBedrooms = []int{5, 6, 7, 8}

// CatalogQuery is a normalised catalog request. Build it with
// ParseCatalogQuery so every field is within bounds.
type CatalogQuery struct {
	CommunityID    *uuid.UUID
	DeveloperID    *uuid.UUID
	PropertyTypeID *uuid.UUID
	StatusID       *uuid.UUID
	MinPrice       *float64
	MaxPrice       *float64
	Search         string
	SortBy         string
	SortDir        string
	Bedrooms       []int
	Amenities      []uuid.UUID
	Page           int
	Limit          int
	FeaturedOnly   bool

	// MatchNone is set when a filter was supplied but none of its values
	// could be understood, so no property can satisfy it.
	MatchNone bool
}

// Offset is the number of rows skipped before the current page.
func (q CatalogQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// HasAmenityFilter reports whether the in-memory amenity pass applies.
func (q CatalogQuery) HasAmenityFilter() bool {
	return len(q.Amenities) > 0
}

// ParseCatalogQuery normalises raw query parameters. Unrecognised or
// malformed values fall back to their defaults instead of failing.
func ParseCatalogQuery(values url.Values) CatalogQuery {
	q := CatalogQuery{
		Page:    DefaultPage,
		Limit:   DefaultPageSize,
		SortBy:  DefaultSortBy,
		SortDir: SortDesc,
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		q.Page = min(page, MaxPage)
	} else if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(values.Get("page"), "-") {
		q.Page = MaxPage
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 {
		q.Limit = min(limit, MaxPageSize)
	}

	q.Search = strings.TrimSpace(values.Get("search"))

	q.CommunityID = parseFilterID(values.Get("community"))
	q.DeveloperID = parseFilterID(values.Get("developer"))
	q.PropertyTypeID = parseFilterID(values.Get("propertyType"))
	q.StatusID = parseFilterID(values.Get("status"))

	// A literal "5+" arrives as "5 " once the query string is decoded.
	switch bedrooms := strings.TrimSpace(values.Get("bedrooms")); bedrooms {
	case "", "any":
	case "5", "5+":
		q.Bedrooms = append([]int(nil), fivePlusBedrooms...)
	default:
		if n, err := strconv.Atoi(bedrooms); err == nil && n >= 1 && n <= 4 {
			q.Bedrooms = []int{n}
		}
	}

	q.MinPrice = parsePrice(values.Get("minPrice"))
	q.MaxPrice = parsePrice(values.Get("maxPrice"))
	q.FeaturedOnly = values.Get("isFeatured") == "true"

	if raw := strings.TrimSpace(values.Get("amenities")); raw != "" {
		seen := make(map[uuid.UUID]struct{})
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			q.Amenities = append(q.Amenities, id)
		}
		q.MatchNone = len(q.Amenities) == 0
	}

	if _, ok := sortColumns[values.Get("sortBy")]; ok {
		q.SortBy = values.Get("sortBy")
	}
	if dir := values.Get("sortDir"); dir == SortAsc || dir == SortDesc {
		q.SortDir = dir
	}

	return q
}

func parseFilterID(raw string) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// escapeLike escapes the ILIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// BuildCatalogFilter renders the WHERE clause shared by the count and page
// queries. Soft-deleted rows are always excluded. The amenity list is not
// part of the clause.
func BuildCatalogFilter(q CatalogQuery) (string, []any) {
	conditions := []string{"p.is_deleted = false"}
	var args []any

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}
	if q.CommunityID != nil {
		add("p.community_id = $%d", *q.CommunityID)
	}
	if q.DeveloperID != nil {
		add("p.developer_id = $%d", *q.DeveloperID)
	}
	if q.PropertyTypeID != nil {
		add("p.property_type_id = $%d", *q.PropertyTypeID)
	}
	if q.StatusID != nil {
		add("p.status_id = $%d", *q.StatusID)
	}
	if len(q.Bedrooms) == 1 {
		add("p.bedrooms = $%d", q.Bedrooms[0])
	} else if len(q.Bedrooms) > 1 {
		add("p.bedrooms = ANY($%d::int[])", q.Bedrooms)
	}
	if q.MinPrice != nil {
		add("p.starting_price >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add("p.starting_price <= $%d", *q.MaxPrice)
	}
	if q.FeaturedOnly {
		conditions = append(conditions, "p.is_featured = true")
	}
	if q.MatchNone {
		conditions = append(conditions, "false")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// BuildCatalogOrder renders the ORDER BY clause. Creation time is appended as
// a tie-break unless it is already the primary key.
func BuildCatalogOrder(q CatalogQuery) string {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns[DefaultSortBy]
	}
	dir := "DESC"
	if q.SortDir == SortAsc {
		dir = "ASC"
	}

	order := fmt.Sprintf("ORDER BY %s %s NULLS LAST", column, dir)
	if column != sortColumns[DefaultSortBy] {
		order += ", p.created_at DESC"
	}
	return order
}
