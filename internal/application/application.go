// Package application assembles the store and services from configuration.
// The server and the CLI start from the same App.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/PartsInventory/internal/auth"
	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/store/memory"
	"github.com/JonMunkholm/PartsInventory/internal/store/postgres"
)

// App holds the wired services. Close releases the database pool.
type App struct {
	Config *config.Config
	Core   *core.Service
	Users  *auth.Service
	Pool   *pgxpool.Pool
}

// Options tune New for the caller.
type Options struct {
	// Migrate applies pending migrations after connecting.
	Migrate bool
}

// New opens the configured store and builds the services over it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	var store core.Store
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		store = memory.New()
	default:
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.Pool = pool
		slog.Info("connected to database", "name", databaseName(cfg.Database.URL))

		if opts.Migrate {
			if err := Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		store = postgres.New(pool)
	}

	a.Core = core.NewService(store, cfg)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Users = auth.NewService(store, a.Core.Audit(), tokens)
	return a, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	m, err := postgres.NewMigrator(pool)
	if err != nil {
		return err
	}
	defer m.Close()

	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(applied), "versions", applied)
	return nil
}

// Bootstrap creates the configured admin account if it does not exist.
func (a *App) Bootstrap(ctx context.Context) error {
	name := a.Config.Auth.BootstrapAdminUser
	if name == "" {
		return nil
	}
	created, err := a.Users.EnsureAdmin(ctx, name, a.Config.Auth.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin %q: %w", name, err)
	}
	if created {
		slog.Info("bootstrap admin created", "username", name)
	}
	return nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// databaseName is the path of a postgres URL, for logs that must not
// carry credentials.
func databaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
