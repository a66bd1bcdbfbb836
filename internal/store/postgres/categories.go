package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func scanCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.DisplayOrder,
		&c.IsActive,
		&c.ParentID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ParentName,
	)
	return c, err
}

func (s *Store) queryCategories(ctx context.Context, b sq.SelectBuilder) ([]core.Category, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	cs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		return scanCategory(row)
	})
	if cs == nil && err == nil {
		cs = []core.Category{}
	}
	return cs, err
}

func (s *Store) CategoryByID(ctx context.Context, id int64) (core.Category, error) {
	query, args, err := selectCategories(s.sb).Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return core.Category{}, err
	}
	c, err := scanCategory(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return core.Category{}, classify(err, "category", id)
	}
	return c, nil
}

func activeOnly(b sq.SelectBuilder, active bool) sq.SelectBuilder {
	if active {
		return b.Where(sq.Eq{"c.is_active": true})
	}
	return b
}

func (s *Store) AllCategories(ctx context.Context, active bool) ([]core.Category, error) {
	return s.queryCategories(ctx, activeOnly(selectCategories(s.sb), active))
}

func (s *Store) ParentCategories(ctx context.Context, active bool) ([]core.Category, error) {
	b := selectCategories(s.sb).Where(sq.Eq{"c.parent_id": nil})
	return s.queryCategories(ctx, activeOnly(b, active))
}

func (s *Store) ChildCategories(ctx context.Context, parentIDs ...int64) ([]core.Category, error) {
	if len(parentIDs) == 0 {
		return []core.Category{}, nil
	}
	return s.queryCategories(ctx, selectCategories(s.sb).Where(sq.Eq{"c.parent_id": parentIDs}))
}

func (s *Store) SearchCategories(ctx context.Context, keyword string) ([]core.Category, error) {
	pattern := contains(keyword)
	b := selectCategories(s.sb).Where(sq.Or{
		sq.ILike{"c.name": pattern},
		sq.ILike{"c.description": pattern},
	})
	return s.queryCategories(ctx, b)
}

func (s *Store) CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	b := s.sb.Select("1").From("categories").Where(sq.Eq{"name": name})
	if excludeID != 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	return s.exists(ctx, b)
}

func (s *Store) CountChildren(ctx context.Context, id int64) (int64, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("categories").Where(sq.Eq{"parent_id": id}))
}

func (s *Store) CountPartsInCategory(ctx context.Context, id int64) (int64, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("parts").Where(sq.Eq{"category_id": id}))
}

func (s *Store) CategoryPartCounts(ctx context.Context) (map[int64]int64, error) {
	query, args, err := s.sb.Select("category_id", "COUNT(*)").
		From("parts").
		Where(sq.NotEq{"category_id": nil}).
		GroupBy("category_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]int64{}
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *Store) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	query, args, err := s.sb.Insert("categories").
		Columns("name", "description", "display_order", "is_active", "parent_id", "created_at", "updated_at").
		Values(c.Name, c.Description, c.DisplayOrder, c.IsActive, nullID(c.ParentID), c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return core.Category{}, err
	}
	if err := s.q.QueryRow(ctx, query, args...).Scan(&c.ID); err != nil {
		return core.Category{}, classify(err, "category name", c.Name)
	}
	return s.CategoryByID(ctx, c.ID)
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	b := s.sb.Update("categories").
		SetMap(map[string]any{
			"name":          c.Name,
			"description":   c.Description,
			"display_order": c.DisplayOrder,
			"is_active":     c.IsActive,
			"parent_id":     nullID(c.ParentID),
			"updated_at":    c.UpdatedAt,
		}).
		Where(sq.Eq{"id": c.ID})
	if err := s.execOne(ctx, b, "category", c.ID); err != nil {
		return core.Category{}, err
	}
	return s.CategoryByID(ctx, c.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.execOne(ctx, s.sb.Delete("categories").Where(sq.Eq{"id": id}), "category", id)
}
