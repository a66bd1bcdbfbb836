package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PartsInventory/internal/application"
	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func newApp(t *testing.T) *application.App {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{
		"STORE_DRIVER":    "memory",
		"AUTH_JWT_SECRET": "0123456789abcdef0123456789abcdef",
	})
	require.NoError(t, err)
	a, err := application.New(context.Background(), cfg, application.Options{})
	require.NoError(t, err)
	return a
}

func run(t *testing.T, app *application.App, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parts.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportThenExport(t *testing.T) {
	app := newApp(t)
	csv := strings.Join(core.ExportHeaders, ",") + "\n" +
		"AT-100,Torque converter,1200,,Aisin\n" +
		"CV-200,Valve body,800,,Jatco\n" +
		"AT-100,Again,5,,\n"

	out, err := run(t, app, "import", writeCSV(t, csv))
	require.NoError(t, err)
	var outcome map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.EqualValues(t, 2, outcome["successCount"])
	assert.EqualValues(t, 1, outcome["skipCount"])

	t.Run("all to stdout", func(t *testing.T) {
		out, err := run(t, app, "export")
		require.NoError(t, err)
		assert.Contains(t, out, "AT-100")
		assert.Contains(t, out, "CV-200")
	})

	t.Run("criteria to directory", func(t *testing.T) {
		dir := t.TempDir()
		_, err := run(t, app, "export", "--out", dir, "--manufacturer", "jatco")
		require.NoError(t, err)

		files, err := filepath.Glob(filepath.Join(dir, "parts_search_export_*.csv"))
		require.NoError(t, err)
		require.Len(t, files, 1)
		data, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), "CV-200")
		assert.NotContains(t, string(data), "AT-100")
	})

	t.Run("bad criteria", func(t *testing.T) {
		_, err := run(t, app, "export", "--min-price", "cheap")
		var fe core.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "minPrice")
	})

	t.Run("imports are audited as partsctl", func(t *testing.T) {
		page, err := app.Core.Audit().List(context.Background(), 50, 0)
		require.NoError(t, err)
		found := false
		for _, e := range page.Entries {
			if e.Action == core.ActionCSVImport {
				found = true
				assert.Equal(t, "partsctl", e.Username)
			}
		}
		assert.True(t, found)
	})
}

func TestImportRejectsNonCSV(t *testing.T) {
	app := newApp(t)
	path := filepath.Join(t.TempDir(), "parts.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := run(t, app, "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE003")
}

func TestCreateUser(t *testing.T) {
	app := newApp(t)

	out, err := run(t, app, "create-user",
		"--username", "maria", "--password", "secret1",
		"--email", "maria@example.com", "--full-name", "Maria", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created user maria")

	users, err := app.Users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, core.RoleAdmin, users[0].Role)

	_, err = run(t, app, "create-user", "--username", "x")
	assert.Error(t, err, "required flags are enforced")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	_, err := run(t, newApp(t), "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER=postgres")
}
