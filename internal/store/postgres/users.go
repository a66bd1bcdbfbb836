package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

var userColumns = []string{
	"id", "username", "email", "full_name", "password_hash", "enabled", "role", "created_at", "updated_at",
}

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.Enabled,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (s *Store) queryUser(ctx context.Context, where sq.Sqlizer, key any) (core.User, error) {
	query, args, err := s.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return core.User{}, err
	}
	u, err := scanUser(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return core.User{}, classify(err, "user", key)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.queryUser(ctx, sq.Eq{"id": id}, id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (core.User, error) {
	return s.queryUser(ctx, sq.Eq{"username": username}, username)
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	query, args, err := s.sb.Select(userColumns...).From("users").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.User, error) {
		return scanUser(row)
	})
	if users == nil && err == nil {
		users = []core.User{}
	}
	return users, err
}

func (s *Store) userExists(ctx context.Context, where sq.Sqlizer, excludeID int64) (bool, error) {
	b := s.sb.Select("1").From("users").Where(where)
	if excludeID != 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	return s.exists(ctx, b)
}

func (s *Store) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	return s.userExists(ctx, sq.Eq{"username": username}, excludeID)
}

// EmailExists is case-insensitive, matching the users_email_key index.
func (s *Store) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return s.userExists(ctx, sq.Expr("lower(email) = ?", strings.ToLower(email)), excludeID)
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("users"))
}

func (s *Store) CountUsersByRole(ctx context.Context, role core.Role) (int64, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"role": string(role)}))
}

func (s *Store) InsertUser(ctx context.Context, u core.User) (core.User, error) {
	query, args, err := s.sb.Insert("users").
		Columns("username", "email", "full_name", "password_hash", "enabled", "role", "created_at", "updated_at").
		Values(u.Username, u.Email, u.FullName, u.PasswordHash, u.Enabled, string(u.Role), u.CreatedAt, u.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return core.User{}, err
	}
	if err := s.q.QueryRow(ctx, query, args...).Scan(&u.ID); err != nil {
		return core.User{}, classify(err, "user", u.Username)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	b := s.sb.Update("users").
		SetMap(map[string]any{
			"username":      u.Username,
			"email":         u.Email,
			"full_name":     u.FullName,
			"password_hash": u.PasswordHash,
			"enabled":       u.Enabled,
			"role":          string(u.Role),
			"updated_at":    u.UpdatedAt,
		}).
		Where(sq.Eq{"id": u.ID})
	if err := s.execOne(ctx, b, "user", u.ID); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execOne(ctx, s.sb.Delete("users").Where(sq.Eq{"id": id}), "user", id)
}
