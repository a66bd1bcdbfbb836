package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ATF-100", "ATF-100"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`C:\parts`, `C:\\parts`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}

func TestSearchQuery(t *testing.T) {
	minPrice := decimal.NewFromInt(1000)
	catID := int64(5)
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f := core.PartFilter{
		PartNumber:   "a_b",
		CategoryID:   &catID,
		MinPrice:     &minPrice,
		CreatedAfter: &after,
	}
	req := core.PageRequest{Sort: core.SortPrice, Order: core.SortAsc, Page: 2, Size: 10}

	query, args, err := orderAndPage(wherePart(selectParts(builder()), f), req).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM parts p LEFT JOIN categories c ON c.id = p.category_id")
	assert.Contains(t, query, "WHERE p.part_number ILIKE $1 AND p.category_id = $2 AND p.price >= $3 AND p.created_at >= $4")
	assert.Contains(t, query, "ORDER BY p.price ASC, p.id ASC LIMIT 10 OFFSET 20")

	require.Len(t, args, 4)
	assert.Equal(t, `%a\_b%`, args[0])
	assert.Equal(t, int64(5), args[1])
	assert.Equal(t, "1000", fmt.Sprint(args[2]))
	assert.Equal(t, after, args[3])
}

func TestEmptyFilterHasNoWhere(t *testing.T) {
	query, args, err := countParts(builder(), core.PartFilter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestOrderFallsBackToUpdatedAt(t *testing.T) {
	req := core.PageRequest{Sort: "bogus", Order: "", Page: 0, Size: 20}
	query, _, err := orderAndPage(selectParts(builder()), req).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY p.updated_at DESC, p.id ASC LIMIT 20 OFFSET 0")
}

func TestKeywordPredicate(t *testing.T) {
	query, args, err := keywordPredicate("gear").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(p.part_number ILIKE ? OR p.part_name ILIKE ? OR p.manufacturer ILIKE ?)", query)
	assert.Equal(t, []any{"%gear%", "%gear%", "%gear%"}, args)
}

func TestPriceBucketCase(t *testing.T) {
	want := "CASE" +
		" WHEN p.price < 1000 THEN '<1000'" +
		" WHEN p.price >= 1000 AND p.price < 5000 THEN '1000-5000'" +
		" WHEN p.price >= 5000 AND p.price < 10000 THEN '5000-10000'" +
		" WHEN p.price >= 10000 AND p.price < 50000 THEN '10000-50000'" +
		" ELSE '>=50000' END"
	assert.Equal(t, want, priceBucketCase())

	query, _, err := priceAggregate(builder(), core.PartFilter{}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "GROUP BY bucket ORDER BY n DESC, bucket ASC")
}

func TestClassify(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"no rows", pgx.ErrNoRows, core.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "parts_part_number_key"}, core.ErrConflict},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "part", 7)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.NoError(t, classify(nil, "part", 7))
}
