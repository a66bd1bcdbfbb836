package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/config"
	"golang.org/x/sync/errgroup"
)

// Service is the inventory's business layer. It is safe for concurrent use;
// all shared state lives in the Store.
type Service struct {
	store   Store
	audit   *AuditRecorder
	limiter *ImportLimiter
	now     func() time.Time

	pageSize      int
	maxFileSize   int64
	importTimeout time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service over store. A nil cfg uses built-in defaults.
func NewService(store Store, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:         store,
		now:           time.Now,
		pageSize:      DefaultPageSize,
		maxFileSize:   DefaultMaxImportSize,
		importTimeout: DefaultImportTimeout,
		limiter:       NewImportLimiter(DefaultMaxConcurrentImports, DefaultImportWait),
	}
	if cfg != nil {
		s.pageSize = cfg.Search.DefaultPageSize
		s.maxFileSize = cfg.Import.MaxFileSize
		s.importTimeout = cfg.Import.Timeout
		s.limiter = NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = NewAuditRecorder(store, s.now)
	return s
}

// ImportLimiter exposes the import semaphore for shutdown and status.
func (s *Service) ImportLimiter() *ImportLimiter {
	return s.limiter
}

// Audit exposes the audit recorder.
func (s *Service) Audit() *AuditRecorder {
	return s.audit
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Dashboard gathers the admin overview counts concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalParts, err = s.store.CountParts(gctx, PartFilter{})
		return err
	})
	g.Go(func() (err error) {
		d.TotalUsers, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.AdminUsers, err = s.store.CountUsersByRole(gctx, RoleAdmin)
		return err
	})
	g.Go(func() (err error) {
		d.RegularUsers, err = s.store.CountUsersByRole(gctx, RoleUser)
		return err
	})
	g.Go(func() error {
		st, err := s.CategoryStatistics(gctx)
		if err != nil {
			return err
		}
		d.Categories = *st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, wrapStore("dashboard", err)
	}
	return &d, nil
}

func (s *Service) record(ctx context.Context, action AuditAction, entity string, id any, summary string, details map[string]any) {
	s.audit.Record(ctx, AuditParams{
		Action:     action,
		EntityType: entity,
		EntityID:   fmt.Sprint(id),
		Summary:    summary,
		Details:    details,
	})
}
