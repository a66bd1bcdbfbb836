package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func memoryConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{
		"STORE_DRIVER":    "memory",
		"AUTH_JWT_SECRET": "0123456789abcdef0123456789abcdef",
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)
	return cfg
}

func TestNewMemoryBootstrap(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t, map[string]string{
		"AUTH_BOOTSTRAP_ADMIN_USER":     "root",
		"AUTH_BOOTSTRAP_ADMIN_PASSWORD": "changeme",
	})

	a, err := New(ctx, cfg, Options{Migrate: true})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Pool)

	require.NoError(t, a.Bootstrap(ctx))
	require.NoError(t, a.Bootstrap(ctx), "second run finds the account")

	users, err := a.Users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, core.RoleAdmin, users[0].Role)

	session, err := a.Users.Login(ctx, "root", "changeme")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestBootstrapDisabled(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t, nil), Options{})
	require.NoError(t, err)

	require.NoError(t, a.Bootstrap(ctx))
	users, err := a.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "parts", databaseName("postgres://u:secret@db:5432/parts?sslmode=disable"))
	assert.Equal(t, "", databaseName("::bad"))
}
