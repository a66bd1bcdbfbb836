package core_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/store/memory"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// ============================================================================
// Filtering and Ordering Benchmarks
// ============================================================================

// BenchmarkPartFilterMatches runs a filter carrying every predicate kind.
// It is evaluated once per stored part on each search.
func BenchmarkPartFilterMatches(b *testing.B) {
	parts := benchParts(1000)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	f := core.PartFilter{
		PartName:     "a",
		Manufacturer: "e",
		MinPrice:     decPtr("100"),
		MaxPrice:     decPtr("8000"),
		CreatedAfter: &from,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range parts {
			f.Matches(p)
		}
	}
}

// BenchmarkSortParts sorts a copy so every iteration starts unsorted.
func BenchmarkSortParts(b *testing.B) {
	for _, field := range []core.SortField{core.SortPrice, core.SortPartName, core.SortUpdatedAt} {
		b.Run(string(field), func(b *testing.B) {
			parts := benchParts(2000)
			work := make([]core.Part, len(parts))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				copy(work, parts)
				core.SortParts(work, field, core.SortDesc)
			}
		})
	}
}

func BenchmarkAggregateParts(b *testing.B) {
	parts := benchParts(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.AggregateParts(parts)
	}
}

// BenchmarkValidateCriteria parses a fully populated search form.
func BenchmarkValidateCriteria(b *testing.B) {
	in := core.CriteriaInput{
		PartName:      "pump",
		MinPrice:      "100",
		MaxPrice:      "2500.50",
		CreatedAfter:  "2024-01-01",
		CreatedBefore: "2024-12-31",
		SortBy:        "price",
		SortOrder:     "desc",
		Page:          "2",
		Size:          "50",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, errs := core.ValidateCriteria(in); len(errs) > 0 {
			b.Fatal(errs)
		}
	}
}

// ============================================================================
// CSV Benchmarks
// ============================================================================

func BenchmarkWriteCSV(b *testing.B) {
	parts := benchParts(2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := core.WriteCSV(io.Discard, parts); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkImportCSV imports into a fresh store each iteration so every
// row is a success rather than a duplicate skip.
func BenchmarkImportCSV(b *testing.B) {
	for _, rows := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			var buf bytes.Buffer
			if err := core.WriteCSV(&buf, benchParts(rows)); err != nil {
				b.Fatal(err)
			}
			data := buf.Bytes()
			ctx := context.Background()

			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				svc := core.NewService(memory.New(), nil)
				b.StartTimer()

				outcome, err := svc.ImportCSV(ctx, core.ImportFile{
					Name: "bench.csv",
					Size: int64(len(data)),
					Body: bytes.NewReader(data),
				})
				if err != nil {
					b.Fatal(err)
				}
				if outcome.SuccessCount != rows {
					b.Fatalf("imported %d of %d rows", outcome.SuccessCount, rows)
				}
			}
		})
	}
}

// ============================================================================
// Search Benchmarks
// ============================================================================

func BenchmarkSearch(b *testing.B) {
	ctx := context.Background()
	svc := core.NewService(memory.New(), nil)
	for _, p := range benchParts(2000) {
		price := p.Price
		_, err := svc.RegisterPart(ctx, core.PartInput{
			PartNumber:   p.PartNumber,
			PartName:     p.PartName,
			Price:        &price,
			Manufacturer: p.Manufacturer,
		})
		if err != nil {
			b.Fatal(err)
		}
	}
	in := core.CriteriaInput{MinPrice: "500", SortBy: "price", Size: "50"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Search(ctx, in); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	ctx := context.Background()
	svc := core.NewService(memory.New(), nil)
	for _, p := range benchParts(500) {
		price := p.Price
		if _, err := svc.RegisterPart(ctx, core.PartInput{PartNumber: p.PartNumber, PartName: p.PartName, Price: &price}); err != nil {
			b.Fatal(err)
		}
	}
	c, _ := core.ValidateCriteria(core.CriteriaInput{PartName: "a"})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.SearchParts(ctx, c); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// benchParts generates n parts with unique part numbers and a fixed seed.
func benchParts(n int) []core.Part {
	f := gofakeit.New(42)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	parts := make([]core.Part, n)
	for i := range parts {
		ts := base.Add(time.Duration(i) * time.Hour)
		parts[i] = core.Part{
			ID:           int64(i + 1),
			PartNumber:   fmt.Sprintf("AT-%06d", i),
			PartName:     f.ProductName(),
			Price:        decimal.RequireFromString(f.Numerify("####.##")),
			Manufacturer: f.Company(),
			Description:  f.Sentence(6),
			CreatedAt:    ts,
			UpdatedAt:    ts,
		}
	}
	return parts
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
