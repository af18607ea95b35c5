// Package admin implements cookmatectl, the operator CLI for schema
// migrations.
package admin

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/cookmate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cookmate/internal/server/storage"
	"github.com/spf13/cobra"
)

// DSNEnv is read for the default --dsn value.
const DSNEnv = "COOKMATE_DATABASE_DSN"

// Migrator is the subset of the repository manager the CLI drives.
type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
	MigrationStatus(ctx context.Context, db *sql.DB, w io.Writer) error
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DSN string

	open     func(ctx context.Context, dsn string) (*sql.DB, error)
	migrator Migrator
}

// NewRootCommand creates the cookmatectl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		open:     storage.OpenPostgres,
		migrator: repomanager.NewPostgresRepositoryManager(),
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookmatectl",
		Short: "CookMate administration",
		Long:  "Operator commands for the CookMate server database.",
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", os.Getenv(DSNEnv), "PostgreSQL DSN (default $"+DSNEnv+")")

	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
