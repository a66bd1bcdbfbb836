package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceBucketLabel(t *testing.T) {
	tests := map[string]string{
		"0":        "<1000",
		"999.99":   "<1000",
		"1000":     "1000-5000",
		"4999.99":  "1000-5000",
		"5000":     "5000-10000",
		"10000":    "10000-50000",
		"50000":    ">=50000",
		"99999999": ">=50000",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, PriceBucketLabel(decimal.RequireFromString(in)))
		})
	}
}

func TestAggregateParts(t *testing.T) {
	parts := []Part{
		{Price: decimal.NewFromInt(500), CategoryName: "Gears", Manufacturer: "Aisin"},
		{Price: decimal.NewFromInt(1500), CategoryName: "Gears", Manufacturer: "Jatco"},
		{Price: decimal.NewFromInt(2000), Manufacturer: "Aisin"},
	}

	got := AggregateParts(parts)

	assert.Equal(t, []NamedCount{{"Gears", 2}, {UncategorizedLabel, 1}}, got.ByCategory)
	assert.Equal(t, []NamedCount{{"Aisin", 2}, {"Jatco", 1}}, got.ByManufacturer)
	assert.Equal(t, []NamedCount{
		{"<1000", 1}, {"1000-5000", 2}, {"5000-10000", 0}, {"10000-50000", 0}, {">=50000", 0},
	}, got.ByPriceRange)
}

func TestSortParts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	parts := []Part{
		{ID: 1, PartNumber: "B", Price: decimal.NewFromInt(30), UpdatedAt: base.Add(time.Hour)},
		{ID: 2, PartNumber: "A", Price: decimal.NewFromInt(10), UpdatedAt: base.Add(3 * time.Hour)},
		{ID: 3, PartNumber: "C", Price: decimal.NewFromInt(20), UpdatedAt: base.Add(2 * time.Hour)},
	}
	ids := func() []int64 {
		out := make([]int64, len(parts))
		for i, p := range parts {
			out[i] = p.ID
		}
		return out
	}

	SortParts(parts, SortUpdatedAt, SortDesc)
	assert.Equal(t, []int64{2, 3, 1}, ids())

	SortParts(parts, SortPrice, SortAsc)
	assert.Equal(t, []int64{2, 3, 1}, ids())

	SortParts(parts, SortPartNumber, SortDesc)
	assert.Equal(t, []int64{3, 1, 2}, ids())
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, PageRequest{Page: 0, Size: 2}))
	assert.Equal(t, []int{5}, Paginate(items, PageRequest{Page: 2, Size: 2}))
	assert.Empty(t, Paginate(items, PageRequest{Page: 3, Size: 2}))
	assert.Empty(t, Paginate(items, PageRequest{Page: 0, Size: 0}))
}
