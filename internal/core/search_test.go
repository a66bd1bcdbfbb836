package core_test

import (
	"context"
	"testing"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_CategoryAndMinPrice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// Categories 1-5 so the filtered one has id 5.
	var cats []core.Category
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		cats = append(cats, mustCategory(t, svc, name, nil))
	}
	five, other := cats[4].ID, cats[0].ID
	require.Equal(t, int64(5), five)

	mustRegister(t, svc, core.PartInput{PartNumber: "P-500", PartName: "a", Price: price("500"), CategoryID: &five})
	mustRegister(t, svc, core.PartInput{PartNumber: "P-1500", PartName: "b", Price: price("1500"), CategoryID: &five})
	mustRegister(t, svc, core.PartInput{PartNumber: "P-2000", PartName: "c", Price: price("2000"), CategoryID: &five})
	mustRegister(t, svc, core.PartInput{PartNumber: "Q-1500", PartName: "d", Price: price("1500"), CategoryID: &other})
	mustRegister(t, svc, core.PartInput{PartNumber: "Q-9000", PartName: "e", Price: price("9000")})

	r, err := svc.Search(ctx, core.CriteriaInput{CategoryID: "5", MinPrice: "1000", SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)

	require.Len(t, r.Content, 2)
	assert.Equal(t, int64(2), r.TotalCount)
	assert.Equal(t, "P-1500", r.Content[0].PartNumber)
	assert.Equal(t, "P-2000", r.Content[1].PartNumber)
}

func TestSearch_EmptyCriteriaReturnsEverythingNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	f := gofakeit.New(3)

	var numbers []string
	for i := range 25 {
		in := fakePart(f)
		in.PartNumber = in.PartNumber + "-" + string(rune('a'+i))
		numbers = append(numbers, mustRegister(t, svc, in).PartNumber)
	}

	r, err := svc.SearchParts(ctx, core.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), r.TotalCount)
	assert.Equal(t, 20, r.PageSize)
	assert.Equal(t, 2, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.False(t, r.HasPrevious)
	require.Len(t, r.Content, 20)
	assert.Equal(t, numbers[24], r.Content[0].PartNumber)
	assert.Equal(t, numbers[5], r.Content[19].PartNumber)

	page := 1
	r, err = svc.SearchParts(ctx, core.Criteria{Page: &page})
	require.NoError(t, err)
	require.Len(t, r.Content, 5)
	assert.True(t, r.HasPrevious)
	assert.False(t, r.HasNext)
}

func TestSearch_ListingIgnoresNonCanonicalSort(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustRegister(t, svc, core.PartInput{PartNumber: "B", PartName: "x", Price: price("1")})
	mustRegister(t, svc, core.PartInput{PartNumber: "A", PartName: "x", Price: price("1")})
	mustRegister(t, svc, core.PartInput{PartNumber: "C", PartName: "x", Price: price("1")})

	r, err := svc.SearchParts(ctx, core.Criteria{SortBy: "partNumber", SortOrder: core.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, partNumbers(r.Content))

	// The lowercase alias is only honoured once a filter is present.
	r, err = svc.SearchParts(ctx, core.Criteria{SortBy: "partnumber", SortOrder: core.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, partNumbers(r.Content))

	r, err = svc.SearchParts(ctx, core.Criteria{PartFilter: core.PartFilter{PartName: "x"}, SortBy: "partnumber", SortOrder: core.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, partNumbers(r.Content))
}

func partNumbers(parts []core.Part) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.PartNumber
	}
	return out
}

func TestSearch_InvalidCriteriaCollectsAllErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Search(context.Background(), core.CriteriaInput{MinPrice: "100", MaxPrice: "50", Size: "0"})
	require.ErrorIs(t, err, core.ErrValidation)

	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "priceRange")
	assert.Contains(t, fe, "size")
}

func TestSearch_PagePastTheEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	f := gofakeit.New(11)
	for range 3 {
		mustRegister(t, svc, fakePart(f))
	}

	tests := []struct {
		name string
		in   core.CriteriaInput
	}{
		{"listing", core.CriteriaInput{Page: "5", Size: "10"}},
		{"filtered", core.CriteriaInput{MinPrice: "0", Page: "5", Size: "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.Search(ctx, tt.in)
			require.NoError(t, err)
			assert.Empty(t, r.Content)
			assert.NotNil(t, r.Content)
			assert.Equal(t, int64(3), r.TotalCount)
			assert.Equal(t, 5, r.CurrentPage)
			assert.Equal(t, 1, r.TotalPages)
			assert.False(t, r.HasNext)
			assert.True(t, r.HasPrevious)
		})
	}
}

func TestSearch_PageOffsetOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustRegister(t, svc, core.PartInput{PartNumber: "A1", PartName: "pump", Price: price("10")})

	// 2^61 * 8 wraps to 0 in int arithmetic.
	_, err := svc.Search(ctx, core.CriteriaInput{Page: "2305843009213693952", Size: "8"})
	require.ErrorIs(t, err, core.ErrValidation)

	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "page")
}

func TestListParts_HugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustRegister(t, svc, core.PartInput{PartNumber: "A1", PartName: "pump", Price: price("10")})

	for _, keyword := range []string{"", "pump"} {
		t.Run("keyword="+keyword, func(t *testing.T) {
			r, err := svc.ListParts(ctx, keyword, 1<<61, 8)
			require.NoError(t, err)
			assert.Empty(t, r.Content)
			assert.Equal(t, int64(1), r.TotalCount)
			assert.False(t, r.HasNext)
			assert.True(t, r.HasPrevious)
		})
	}
}

func TestSearch_Statistics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustRegister(t, svc, core.PartInput{PartNumber: "A", PartName: "Pump", Price: price("800"), Manufacturer: "Aisin"})
	mustRegister(t, svc, core.PartInput{PartNumber: "B", PartName: "Pump seal", Price: price("1200"), Manufacturer: "Aisin"})
	mustRegister(t, svc, core.PartInput{PartNumber: "C", PartName: "Filter", Price: price("60000"), Manufacturer: "ZF"})

	r, err := svc.Search(ctx, core.CriteriaInput{PartName: "pump"})
	require.NoError(t, err)
	require.NotNil(t, r.Statistics)
	assert.Equal(t, []core.NamedCount{{Name: "Aisin", Count: 2}}, r.Statistics.ByManufacturer)
	assert.Equal(t, int64(1), r.Statistics.ByPriceRange[0].Count)
	assert.Equal(t, int64(1), r.Statistics.ByPriceRange[1].Count)

	c, errs := core.ValidateCriteria(core.CriteriaInput{MinPrice: "1000", CreatedAfter: "2024-01-01"})
	require.Empty(t, errs)
	st, err := svc.SearchStatistics(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalResults)
	assert.False(t, st.IsEmpty)
	assert.True(t, st.HasPriceFilter)
	assert.True(t, st.HasDateFilter)
	assert.Equal(t, "1000 or more", st.SearchCriteria["priceRange"])
	assert.Equal(t, "2024-01-01 or later", st.SearchCriteria["createdRange"])
}
