package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func scanPart(row pgx.Row) (core.Part, error) {
	var p core.Part
	err := row.Scan(
		&p.ID,
		&p.PartNumber,
		&p.PartName,
		&p.Price,
		&p.Manufacturer,
		&p.Description,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CategoryName,
		&p.ParentCategoryName,
	)
	return p, err
}

func (s *Store) queryParts(ctx context.Context, b sq.SelectBuilder) ([]core.Part, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := []core.Part{}
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (s *Store) queryPart(ctx context.Context, b sq.SelectBuilder, key any) (core.Part, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return core.Part{}, err
	}
	p, err := scanPart(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return core.Part{}, classify(err, "part", key)
	}
	return p, nil
}

func (s *Store) PartByID(ctx context.Context, id int64) (core.Part, error) {
	return s.queryPart(ctx, selectParts(s.sb).Where(sq.Eq{"p.id": id}), id)
}

func (s *Store) PartByNumber(ctx context.Context, partNumber string) (core.Part, error) {
	return s.queryPart(ctx, selectParts(s.sb).Where(sq.Eq{"p.part_number": partNumber}), partNumber)
}

func (s *Store) PartNumberExists(ctx context.Context, partNumber string, excludeID int64) (bool, error) {
	b := s.sb.Select("1").From("parts").Where(sq.Eq{"part_number": partNumber})
	if excludeID != 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	return s.exists(ctx, b)
}

// page runs b for one page and counts the full match set with countB.
func (s *Store) page(ctx context.Context, b, countB sq.SelectBuilder, req core.PageRequest) ([]core.Part, int64, error) {
	total, err := s.count(ctx, countB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []core.Part{}, 0, nil
	}
	parts, err := s.queryParts(ctx, orderAndPage(b, req))
	if err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}

func (s *Store) ListParts(ctx context.Context, req core.PageRequest) ([]core.Part, int64, error) {
	return s.page(ctx, selectParts(s.sb), s.sb.Select("COUNT(*)").From("parts"), req)
}

func (s *Store) AllParts(ctx context.Context) ([]core.Part, error) {
	return s.queryParts(ctx, selectParts(s.sb).OrderBy("p.id ASC"))
}

func (s *Store) SearchParts(ctx context.Context, f core.PartFilter, req core.PageRequest) ([]core.Part, int64, error) {
	return s.page(ctx, wherePart(selectParts(s.sb), f), countParts(s.sb, f), req)
}

func (s *Store) FilterParts(ctx context.Context, f core.PartFilter) ([]core.Part, error) {
	return s.queryParts(ctx, wherePart(selectParts(s.sb), f).OrderBy("p.id ASC"))
}

func (s *Store) CountParts(ctx context.Context, f core.PartFilter) (int64, error) {
	return s.count(ctx, countParts(s.sb, f))
}

func (s *Store) AggregateParts(ctx context.Context, f core.PartFilter) (core.PartAggregates, error) {
	byCategory, err := s.namedCounts(ctx, categoryAggregate(s.sb, f))
	if err != nil {
		return core.PartAggregates{}, err
	}
	byManufacturer, err := s.namedCounts(ctx, manufacturerAggregate(s.sb, f))
	if err != nil {
		return core.PartAggregates{}, err
	}
	byPrice, err := s.namedCounts(ctx, priceAggregate(s.sb, f))
	if err != nil {
		return core.PartAggregates{}, err
	}

	counts := make(map[string]int64, len(byPrice))
	for _, nc := range byPrice {
		counts[nc.Name] = nc.Count
	}
	bands := make([]core.NamedCount, 0, len(core.PriceBuckets))
	for _, b := range core.PriceBuckets {
		bands = append(bands, core.NamedCount{Name: b.Label, Count: counts[b.Label]})
	}

	return core.PartAggregates{
		ByCategory:     byCategory,
		ByManufacturer: byManufacturer,
		ByPriceRange:   bands,
	}, nil
}

func (s *Store) namedCounts(ctx context.Context, b sq.SelectBuilder) ([]core.NamedCount, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.NamedCount, error) {
		var nc core.NamedCount
		err := row.Scan(&nc.Name, &nc.Count)
		return nc, err
	})
}

func (s *Store) KeywordParts(ctx context.Context, keyword string, req core.PageRequest) ([]core.Part, int64, error) {
	pred := keywordPredicate(strings.TrimSpace(keyword))
	return s.page(ctx,
		selectParts(s.sb).Where(pred),
		s.sb.Select("COUNT(*)").From("parts p").Where(pred),
		req,
	)
}

func (s *Store) InsertPart(ctx context.Context, p core.Part) (core.Part, error) {
	b := s.sb.Insert("parts").
		Columns("part_number", "part_name", "price", "manufacturer", "description", "category_id", "created_at", "updated_at").
		Values(p.PartNumber, p.PartName, p.Price, p.Manufacturer, p.Description, nullID(p.CategoryID), p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id")

	query, args, err := b.ToSql()
	if err != nil {
		return core.Part{}, err
	}
	if err := s.q.QueryRow(ctx, query, args...).Scan(&p.ID); err != nil {
		return core.Part{}, classify(err, "part number", p.PartNumber)
	}
	return s.PartByID(ctx, p.ID)
}

func (s *Store) UpdatePart(ctx context.Context, p core.Part) (core.Part, error) {
	b := s.sb.Update("parts").
		SetMap(map[string]any{
			"part_number":  p.PartNumber,
			"part_name":    p.PartName,
			"price":        p.Price,
			"manufacturer": p.Manufacturer,
			"description":  p.Description,
			"category_id":  nullID(p.CategoryID),
			"updated_at":   p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID})
	if err := s.execOne(ctx, b, "part", p.ID); err != nil {
		return core.Part{}, err
	}
	return s.PartByID(ctx, p.ID)
}

func (s *Store) DeletePart(ctx context.Context, id int64) error {
	return s.execOne(ctx, s.sb.Delete("parts").Where(sq.Eq{"id": id}), "part", id)
}
