// Package cli provides partsctl, the maintenance command line for the
// parts inventory: migrations, bulk CSV transfer and user creation.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/PartsInventory/internal/application"
	"github.com/JonMunkholm/PartsInventory/internal/auth"
	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/JonMunkholm/PartsInventory/internal/store/postgres"
)

// cliActor is the audit actor for changes made from the command line.
var cliActor = core.Actor{Username: "partsctl", Role: core.RoleAdmin}

// env is what the commands run against. A preset app skips config loading.
type env struct {
	app *application.App
}

// Execute runs partsctl with the process arguments.
func Execute() error {
	return NewRootCmd(nil).ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree. When app is nil it is built from the
// environment before any subcommand runs.
func NewRootCmd(app *application.App) *cobra.Command {
	e := &env{app: app}
	var logLevel string

	root := &cobra.Command{
		Use:           "partsctl",
		Short:         "Maintain the parts inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.app != nil {
				return nil
			}
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logging.Setup(cmd.ErrOrStderr(), level, cfg.Logging.Format)

			e.app, err = application.New(cmd.Context(), cfg, application.Options{})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app == nil && e.app != nil {
				e.app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		e.migrateCmd(),
		e.importCmd(),
		e.exportCmd(),
		e.createUserCmd(),
	)
	return root
}

func (e *env) context(cmd *cobra.Command) context.Context {
	return core.ContextWithActor(cmd.Context(), cliActor)
}

func (e *env) migrator() (*postgres.Migrator, error) {
	if e.app.Pool == nil {
		return nil, errors.New("migrations need STORE_DRIVER=postgres")
	}
	return postgres.NewMigrator(e.app.Pool)
}

func (e *env) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			applied, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %05d\n", v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := e.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range statuses {
				state := "pending"
				if st.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-8s %s\n", st.Version, state, st.Path)
			}
			return nil
		},
	})
	return cmd
}

func (e *env) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import parts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			start := time.Now()
			outcome, err := e.app.Core.ImportCSV(e.context(cmd), core.ImportFile{
				Name: info.Name(),
				Size: info.Size(),
				Body: f,
			})
			if outcome == nil {
				return fmt.Errorf("%s", core.FormatUserError(err))
			}
			slog.Info("import finished",
				"file", path,
				"success", outcome.SuccessCount,
				"errors", outcome.ErrorCount,
				"skipped", outcome.SkipCount,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(outcome); encErr != nil {
				return encErr
			}
			if err != nil {
				return fmt.Errorf("import interrupted: %w", err)
			}
			return nil
		},
	}
}

func (e *env) exportCmd() *cobra.Command {
	var (
		out string
		in  core.CriteriaInput
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export parts as CSV, optionally narrowed by search criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := e.context(cmd)

			var (
				export *core.Export
				err    error
			)
			if in != (core.CriteriaInput{}) {
				c, errs := core.ValidateCriteria(in)
				if len(errs) > 0 {
					return errs
				}
				export, err = e.app.Core.ExportSearch(ctx, c)
			} else {
				export, err = e.app.Core.ExportAll(ctx)
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if isDir(out) {
					out = filepath.Join(out, export.Filename)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d parts to %s\n", len(export.Parts), out)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&out, "out", "o", "", "output file or directory (default: stdout)")
	fl.StringVar(&in.PartNumber, "part-number", "", "part number contains")
	fl.StringVar(&in.PartName, "part-name", "", "part name contains")
	fl.StringVar(&in.Manufacturer, "manufacturer", "", "manufacturer contains")
	fl.StringVar(&in.CategoryName, "category-name", "", "category name contains")
	fl.StringVar(&in.CategoryID, "category-id", "", "category id")
	fl.StringVar(&in.MinPrice, "min-price", "", "minimum price")
	fl.StringVar(&in.MaxPrice, "max-price", "", "maximum price")
	fl.StringVar(&in.CreatedAfter, "created-after", "", "created on or after (YYYY-MM-DD)")
	fl.StringVar(&in.CreatedBefore, "created-before", "", "created on or before (YYYY-MM-DD)")
	fl.StringVar(&in.UpdatedAfter, "updated-after", "", "updated on or after (YYYY-MM-DD)")
	fl.StringVar(&in.UpdatedBefore, "updated-before", "", "updated on or before (YYYY-MM-DD)")
	return cmd
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (e *env) createUserCmd() *cobra.Command {
	var (
		in   auth.UserInput
		role string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ConfirmPassword = in.Password
			in.Role = core.Role(strings.ToUpper(role))
			if !strings.HasPrefix(string(in.Role), "ROLE_") {
				in.Role = "ROLE_" + in.Role
			}
			u, err := e.app.Users.CreateUser(e.context(cmd), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, %s)\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&in.Username, "username", "", "login name")
	fl.StringVar(&in.Password, "password", "", "password (at least 6 characters)")
	fl.StringVar(&in.Email, "email", "", "email address")
	fl.StringVar(&in.FullName, "full-name", "", "display name")
	fl.StringVar(&role, "role", "user", "admin or user")
	for _, name := range []string{"username", "password", "email", "full-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
