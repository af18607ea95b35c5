package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/comments"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/relations"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Comments(db dbx.DBTX) comments.Repository
	Relations(db dbx.DBTX) relations.Repository
}
