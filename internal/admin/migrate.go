package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoDSN = errors.New("no database DSN: pass --dsn or set " + DSNEnv)

// NewMigrateCommand creates the migrate command with up, down and status.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "up",
		Short:         "Apply all pending migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db *sql.DB) error {
				if err := opts.migrator.RunMigrations(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "down",
		Short:         "Roll back the most recent migration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db *sql.DB) error {
				if err := opts.migrator.RollbackMigration(ctx, db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "last migration rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Print applied and pending migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db *sql.DB) error {
				return opts.migrator.MigrationStatus(ctx, db, cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

func withDB(ctx context.Context, opts *RootOptions, fn func(context.Context, *sql.DB) error) error {
	if opts.DSN == "" {
		return errNoDSN
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := opts.open(ctx, opts.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db)
}
