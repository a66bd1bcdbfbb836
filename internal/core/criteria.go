package core

// criteria.go models advanced search input.
//
// The pipeline is single pass:
//
//	CriteriaInput --ParseCriteria--> Criteria --Validate--> --withDefaults--> execute
//
// Blank strings become absent while parsing. Parse and range failures are
// collected into FieldErrors rather than returned one at a time.

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the accepted calendar date format for date bounds.
const DateLayout = "2006-01-02"

// DefaultPageSize applies when neither the request nor the configuration name one.
const DefaultPageSize = 20

// SortField is a canonical, sortable part attribute.
type SortField string

const (
	SortPartNumber   SortField = "partNumber"
	SortPartName     SortField = "partName"
	SortManufacturer SortField = "manufacturer"
	SortPrice        SortField = "price"
	SortCategoryName SortField = "categoryName"
	SortCreatedAt    SortField = "createdAt"
	SortUpdatedAt    SortField = "updatedAt"
)

// SortOrder is ASC or DESC.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// sortAliases maps lowercased request values to sort fields.
var sortAliases = map[string]SortField{
	"partnumber":    SortPartNumber,
	"part_number":   SortPartNumber,
	"partname":      SortPartName,
	"part_name":     SortPartName,
	"manufacturer":  SortManufacturer,
	"price":         SortPrice,
	"categoryname":  SortCategoryName,
	"category_name": SortCategoryName,
	"category.name": SortCategoryName,
	"createdat":     SortCreatedAt,
	"created_at":    SortCreatedAt,
	"updatedat":     SortUpdatedAt,
	"updated_at":    SortUpdatedAt,
}

// MapSortField resolves a requested sort through the alias table.
// Unknown values fall back to SortUpdatedAt.
func MapSortField(s string) SortField {
	if f, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return SortUpdatedAt
}

// listingSortField resolves the sort of the unfiltered listing. Only exact
// part attribute names are honoured; anything else sorts by update time.
func listingSortField(s string) SortField {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortPartNumber, SortPartName, SortManufacturer, SortPrice, SortCreatedAt, SortUpdatedAt:
		return f
	default:
		return SortUpdatedAt
	}
}

// ParseSortOrder returns SortAsc only for "asc" in any case.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return SortAsc
	}
	return SortDesc
}

// PageRequest is a resolved sort and 0-based page.
type PageRequest struct {
	Sort  SortField
	Order SortOrder
	Page  int
	Size  int
}

// Offset is the number of rows before this page. A product that does not
// fit in an int saturates at math.MaxInt, which is past every real result.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// PartFilter holds the optional predicates of a search. Empty strings and
// nil pointers are absent and match everything.
type PartFilter struct {
	PartNumber    string           `json:"partNumber,omitempty"`
	PartName      string           `json:"partName,omitempty"`
	Manufacturer  string           `json:"manufacturer,omitempty"`
	CategoryName  string           `json:"categoryName,omitempty"`
	CategoryID    *int64           `json:"categoryId,omitempty"`
	MinPrice      *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice      *decimal.Decimal `json:"maxPrice,omitempty"`
	CreatedAfter  *time.Time       `json:"createdAfter,omitempty"`  // inclusive, start of day
	CreatedBefore *time.Time       `json:"createdBefore,omitempty"` // inclusive, end of day
	UpdatedAfter  *time.Time       `json:"updatedAfter,omitempty"`
	UpdatedBefore *time.Time       `json:"updatedBefore,omitempty"`
}

// IsEmpty reports whether no predicate is present. This is the single
// emptiness check used to choose the unfiltered listing.
func (f PartFilter) IsEmpty() bool {
	return f.PartNumber == "" &&
		f.PartName == "" &&
		f.Manufacturer == "" &&
		f.CategoryName == "" &&
		f.CategoryID == nil &&
		f.MinPrice == nil &&
		f.MaxPrice == nil &&
		!f.HasDateFilter()
}

// HasDateFilter reports whether any of the four date bounds is present.
func (f PartFilter) HasDateFilter() bool {
	return f.CreatedAfter != nil || f.CreatedBefore != nil || f.UpdatedAfter != nil || f.UpdatedBefore != nil
}

// HasPriceFilter reports whether either price bound is present.
func (f PartFilter) HasPriceFilter() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// Matches evaluates every present predicate against p (AND).
func (f PartFilter) Matches(p Part) bool {
	if !containsFold(p.PartNumber, f.PartNumber) ||
		!containsFold(p.PartName, f.PartName) ||
		!containsFold(p.Manufacturer, f.Manufacturer) {
		return false
	}
	if f.CategoryName != "" && !containsFold(p.CategoryName, f.CategoryName) {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return withinBounds(p.CreatedAt, f.CreatedAfter, f.CreatedBefore) &&
		withinBounds(p.UpdatedAt, f.UpdatedAfter, f.UpdatedBefore)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func withinBounds(t time.Time, after, before *time.Time) bool {
	if after != nil && t.Before(*after) {
		return false
	}
	if before != nil && t.After(*before) {
		return false
	}
	return true
}

// Criteria is a parsed search request: filter, sort and page.
// Page and Size are nil when the request did not name them.
type Criteria struct {
	PartFilter
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
	Page      *int      `json:"page,omitempty"`
	Size      *int      `json:"size,omitempty"`
}

// Validate collects every range violation. It does not stop at the first.
func (c Criteria) Validate() FieldErrors {
	errs := FieldErrors{}

	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		errs.Add("priceRange", "minimum price must not exceed maximum price")
	}
	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		errs.Add("minPrice", "minimum price must be 0 or more")
	}
	if c.MaxPrice != nil && c.MaxPrice.IsNegative() {
		errs.Add("maxPrice", "maximum price must be 0 or more")
	}
	if c.CreatedAfter != nil && c.CreatedBefore != nil && c.CreatedAfter.After(*c.CreatedBefore) {
		errs.Add("dateRange", "created-from date must not be after created-to date")
	}
	if c.UpdatedAfter != nil && c.UpdatedBefore != nil && c.UpdatedAfter.After(*c.UpdatedBefore) {
		errs.Add("updatedDateRange", "updated-from date must not be after updated-to date")
	}
	if c.Page != nil && *c.Page < 0 {
		errs.Add("page", "page must be 0 or more")
	}
	if c.Page != nil && *c.Page > maxPage(c.Size) {
		errs.Add("page", "page is too large")
	}
	if c.Size != nil && *c.Size <= 0 {
		errs.Add("size", "page size must be 1 or more")
	}

	return errs
}

// maxPage is the largest page whose offset still fits in an int. An unset
// or invalid size is checked against DefaultPageSize.
func maxPage(size *int) int {
	n := DefaultPageSize
	if size != nil && *size > 0 {
		n = *size
	}
	return math.MaxInt / n
}

// withDefaults fills sort and paging. Sort order defaults to DESC.
func (c Criteria) withDefaults(defaultSize int) Criteria {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if strings.TrimSpace(c.SortBy) == "" {
		c.SortBy = string(SortUpdatedAt)
	}
	if c.SortOrder != SortAsc {
		c.SortOrder = SortDesc
	}
	if c.Page == nil {
		zero := 0
		c.Page = &zero
	}
	if c.Size == nil {
		c.Size = &defaultSize
	}
	return c
}

// pageRequest resolves the sort for the filtered or the listing path.
// c must already carry defaults.
func (c Criteria) pageRequest(listing bool) PageRequest {
	sort := MapSortField(c.SortBy)
	if listing {
		sort = listingSortField(c.SortBy)
	}
	return PageRequest{Sort: sort, Order: c.SortOrder, Page: *c.Page, Size: *c.Size}
}

// CriteriaInput is the raw, all-string form of a search request as it
// arrives from a form, query string or CLI flags.
type CriteriaInput struct {
	PartNumber    string `json:"partNumber"`
	PartName      string `json:"partName"`
	Manufacturer  string `json:"manufacturer"`
	CategoryName  string `json:"categoryName"`
	CategoryID    string `json:"categoryId"`
	MinPrice      string `json:"minPrice"`
	MaxPrice      string `json:"maxPrice"`
	CreatedAfter  string `json:"createdAfter"`
	CreatedBefore string `json:"createdBefore"`
	UpdatedAfter  string `json:"updatedAfter"`
	UpdatedBefore string `json:"updatedBefore"`
	SortBy        string `json:"sortBy"`
	SortOrder     string `json:"sortOrder"`
	Page          string `json:"page"`
	Size          string `json:"size"`
}

// ParseCriteria normalizes in (blank -> absent) and converts typed fields.
// Conversion failures are returned as FieldErrors alongside a best-effort
// Criteria; range checks are left to Criteria.Validate.
func ParseCriteria(in CriteriaInput) (Criteria, FieldErrors) {
	errs := FieldErrors{}
	c := Criteria{
		PartFilter: PartFilter{
			PartNumber:   strings.TrimSpace(in.PartNumber),
			PartName:     strings.TrimSpace(in.PartName),
			Manufacturer: strings.TrimSpace(in.Manufacturer),
			CategoryName: strings.TrimSpace(in.CategoryName),
		},
		SortBy: strings.TrimSpace(in.SortBy),
	}
	if strings.TrimSpace(in.SortOrder) != "" {
		c.SortOrder = ParseSortOrder(in.SortOrder)
	}

	if s := strings.TrimSpace(in.CategoryID); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			errs.Add("categoryId", "category id must be a whole number")
		} else {
			c.CategoryID = &id
		}
	}

	c.MinPrice = parseDecimalField(errs, "minPrice", "minimum price", in.MinPrice)
	c.MaxPrice = parseDecimalField(errs, "maxPrice", "maximum price", in.MaxPrice)

	c.CreatedAfter = parseDateField(errs, in.CreatedAfter, false)
	c.CreatedBefore = parseDateField(errs, in.CreatedBefore, true)
	c.UpdatedAfter = parseDateField(errs, in.UpdatedAfter, false)
	c.UpdatedBefore = parseDateField(errs, in.UpdatedBefore, true)

	c.Page = parseIntField(errs, "page", in.Page)
	c.Size = parseIntField(errs, "size", in.Size)

	return c, errs
}

// ValidateCriteria parses and range-checks in, returning every problem found.
func ValidateCriteria(in CriteriaInput) (Criteria, FieldErrors) {
	c, errs := ParseCriteria(in)
	errs.Merge(c.Validate())
	return c, errs
}

func parseDecimalField(errs FieldErrors, key, label, raw string) *decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		errs.Add(key, label+" must be a number")
		return nil
	}
	return &d
}

func parseIntField(errs FieldErrors, key, raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		errs.Add(key, key+" must be a whole number")
		return nil
	}
	return &n
}

// parseDateField parses a calendar date in the local zone. After-bounds
// start at 00:00:00; before-bounds run through the last instant of the day.
func parseDateField(errs FieldErrors, raw string, endOfDay bool) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		errs.Add("dateFormat", "invalid date: use YYYY-MM-DD")
		return nil
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &d
}
