package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PriceBucket is a half-open [Min, Max) price band. A nil bound is open.
type PriceBucket struct {
	Label string
	Min   *decimal.Decimal
	Max   *decimal.Decimal
}

// Contains reports whether price falls inside the band.
func (b PriceBucket) Contains(price decimal.Decimal) bool {
	if b.Min != nil && price.LessThan(*b.Min) {
		return false
	}
	if b.Max != nil && !price.LessThan(*b.Max) {
		return false
	}
	return true
}

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// PriceBuckets are the bands used by search statistics, in display order.
var PriceBuckets = []PriceBucket{
	{Label: "<1000", Max: bound(1000)},
	{Label: "1000-5000", Min: bound(1000), Max: bound(5000)},
	{Label: "5000-10000", Min: bound(5000), Max: bound(10000)},
	{Label: "10000-50000", Min: bound(10000), Max: bound(50000)},
	{Label: ">=50000", Min: bound(50000)},
}

// PriceBucketLabel returns the label of the band that holds price.
func PriceBucketLabel(price decimal.Decimal) string {
	for _, b := range PriceBuckets {
		if b.Contains(price) {
			return b.Label
		}
	}
	return PriceBuckets[len(PriceBuckets)-1].Label
}

// AggregateParts counts parts by category, manufacturer and price band.
// Category and manufacturer buckets are sorted by count descending, then
// name; price bands keep display order and include empty bands.
func AggregateParts(parts []Part) PartAggregates {
	byCategory := lo.CountValuesBy(parts, func(p Part) string { return p.CategoryLabel() })
	byManufacturer := lo.CountValuesBy(parts, func(p Part) string {
		if strings.TrimSpace(p.Manufacturer) == "" {
			return "Unknown"
		}
		return p.Manufacturer
	})
	byPrice := lo.CountValuesBy(parts, func(p Part) string { return PriceBucketLabel(p.Price) })

	return PartAggregates{
		ByCategory:     rankCounts(byCategory),
		ByManufacturer: rankCounts(byManufacturer),
		ByPriceRange: lo.Map(PriceBuckets, func(b PriceBucket, _ int) NamedCount {
			return NamedCount{Name: b.Label, Count: int64(byPrice[b.Label])}
		}),
	}
}

func rankCounts(m map[string]int) []NamedCount {
	out := lo.MapToSlice(m, func(name string, n int) NamedCount {
		return NamedCount{Name: name, Count: int64(n)}
	})
	slices.SortFunc(out, func(a, b NamedCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// SortParts orders parts in place by page.Sort and page.Order. Ties are
// broken by id so repeated calls are deterministic.
func SortParts(parts []Part, sort SortField, order SortOrder) {
	slices.SortStableFunc(parts, func(a, b Part) int {
		c := compareParts(a, b, sort)
		if order != SortAsc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
}

func compareParts(a, b Part, sort SortField) int {
	switch sort {
	case SortPartNumber:
		return cmp.Compare(a.PartNumber, b.PartNumber)
	case SortPartName:
		return cmp.Compare(a.PartName, b.PartName)
	case SortManufacturer:
		return cmp.Compare(a.Manufacturer, b.Manufacturer)
	case SortPrice:
		return a.Price.Cmp(b.Price)
	case SortCategoryName:
		return cmp.Compare(a.CategoryName, b.CategoryName)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

// Paginate returns the page of items selected by page.
func Paginate[T any](items []T, page PageRequest) []T {
	start := page.Offset()
	if page.Size <= 0 || start >= len(items) {
		return []T{}
	}
	end := min(start+page.Size, len(items))
	return items[start:end]
}
