// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"io"
	"log"

	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/migrations"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/comments"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/relations"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes the schema migration hooks.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Recipes returns a recipes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

// Comments returns a comments.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Comments(db dbx.DBTX) comments.Repository {
	return comments.NewPostgresRepository(db)
}

// Relations returns a relations.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Relations(db dbx.DBTX) relations.Repository {
	return relations.NewPostgresRepository(db)
}

// goose seams for tests.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
)

func setupGoose() {
	goose.SetBaseFS(migrations.Migrations)
	_ = goose.SetDialect("pgx")
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	setupGoose()
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func (m *PostgresRepositoryManager) RollbackMigration(ctx context.Context, db *sql.DB) error {
	setupGoose()
	return gooseDownContext(ctx, db, ".")
}

// MigrationStatus writes the applied/pending state of every migration to w.
func (m *PostgresRepositoryManager) MigrationStatus(ctx context.Context, db *sql.DB, w io.Writer) error {
	setupGoose()
	goose.SetLogger(log.New(w, "", 0))
	return gooseStatusContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
