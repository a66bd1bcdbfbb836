package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

var auditColumns = []string{
	"id::text", "action", "severity", "entity_type", "entity_id", "COALESCE(user_id, 0)",
	"username", "ip_address", "user_agent", "summary", "details", "created_at",
}

func (s *Store) InsertAudit(ctx context.Context, e core.AuditEntry) error {
	var userID any
	if e.UserID != 0 {
		userID = e.UserID
	}
	query, args, err := s.sb.Insert("audit_log").
		Columns("id", "action", "severity", "entity_type", "entity_id", "user_id",
			"username", "ip_address", "user_agent", "summary", "details", "created_at").
		Values(e.ID, string(e.Action), string(e.Severity), e.EntityType, e.EntityID, userID,
			e.Username, e.IPAddress, e.UserAgent, e.Summary, e.Details, e.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, query, args...)
	return err
}

func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]core.AuditEntry, int64, error) {
	total, err := s.count(ctx, s.sb.Select("COUNT(*)").From("audit_log"))
	if err != nil {
		return nil, 0, err
	}
	query, args, err := s.sb.Select(auditColumns...).
		From("audit_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.AuditEntry, error) {
		var e core.AuditEntry
		err := row.Scan(&e.ID, &e.Action, &e.Severity, &e.EntityType, &e.EntityID, &e.UserID,
			&e.Username, &e.IPAddress, &e.UserAgent, &e.Summary, &e.Details, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
