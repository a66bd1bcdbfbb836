package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionPartCreate     AuditAction = "part_create"
	ActionPartUpdate     AuditAction = "part_update"
	ActionPartDelete     AuditAction = "part_delete"
	ActionCategoryCreate AuditAction = "category_create"
	ActionCategoryUpdate AuditAction = "category_update"
	ActionCategoryDelete AuditAction = "category_delete"
	ActionUserCreate     AuditAction = "user_create"
	ActionUserUpdate     AuditAction = "user_update"
	ActionUserDelete     AuditAction = "user_delete"
	ActionCSVImport      AuditAction = "csv_import"
	ActionCSVExport      AuditAction = "csv_export"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry is one row of the audit trail.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     AuditAction    `json:"action"`
	Severity   AuditSeverity  `json:"severity"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId,omitempty"`
	UserID     int64          `json:"userId,omitempty"`
	Username   string         `json:"username,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditParams describes an audited change. Actor, IP and User-Agent come
// from the context.
type AuditParams struct {
	Action     AuditAction
	EntityType string
	EntityID   string
	Summary    string
	Details    map[string]any
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionPartDelete, ActionCategoryDelete, ActionCSVImport:
		return SeverityHigh
	case ActionUserDelete:
		return SeverityCritical
	case ActionCSVExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// NewAuditEntry builds an entry for p from the request context.
func NewAuditEntry(ctx context.Context, p AuditParams, now time.Time) AuditEntry {
	e := AuditEntry{
		ID:         uuid.NewString(),
		Action:     p.Action,
		Severity:   determineSeverity(p.Action),
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		Summary:    p.Summary,
		Details:    p.Details,
		CreatedAt:  now,
	}
	if a, ok := ActorFromContext(ctx); ok {
		e.UserID = a.UserID
		e.Username = a.Username
	}
	return e
}

// AuditRecorder appends audit entries. A failure to record never fails the
// audited operation; it is logged instead.
type AuditRecorder struct {
	store AuditStore
	now   func() time.Time
}

func NewAuditRecorder(store AuditStore, now func() time.Time) *AuditRecorder {
	if now == nil {
		now = time.Now
	}
	return &AuditRecorder{store: store, now: now}
}

// Record writes an entry for p.
func (r *AuditRecorder) Record(ctx context.Context, p AuditParams) {
	auditedTotal.WithLabelValues(string(p.Action)).Inc()
	e := NewAuditEntry(ctx, p, r.now())
	if err := r.store.InsertAudit(ctx, e); err != nil {
		logging.FromContext(ctx).Error("audit write failed",
			"action", p.Action,
			"entity", p.EntityType,
			"entity_id", p.EntityID,
			"error", err,
		)
	}
}

// AuditPage is one page of the audit trail, newest first.
type AuditPage struct {
	Entries []AuditEntry `json:"entries"`
	Total   int64        `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// List returns audit entries newest first.
func (r *AuditRecorder) List(ctx context.Context, limit, offset int) (*AuditPage, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	limit = min(limit, MaxAuditLimit)
	offset = max(offset, 0)

	entries, total, err := r.store.ListAudit(ctx, limit, offset)
	if err != nil {
		return nil, wrapStore("list audit", err)
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	return &AuditPage{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}
