// Package relations provides PostgreSQL-backed set storage for likes and
// saves. The composite primary key (user_id, recipe_id) makes every relation
// a set, so the two sides can never disagree.
package relations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// table returns the backing table of rel. Only known relations are ever
// interpolated into SQL.
func table(rel models.Relation) (string, error) {
	if !rel.Valid() {
		return "", fmt.Errorf("unknown relation %q", rel)
	}
	return string(rel), nil
}

func (r *PostgresRepository) Exists(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	t, err := table(rel)
	if err != nil {
		return false, err
	}
	query := `SELECT EXISTS (SELECT 1 FROM ` + t + ` WHERE user_id = $1 AND recipe_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, recipeID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// Add inserts the pair and reports whether a row was created. Adding a pair
// that is already present is a no-op.
func (r *PostgresRepository) Add(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	t, err := table(rel)
	if err != nil {
		return false, err
	}
	query :=
		`INSERT INTO ` + t + ` (user_id, recipe_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, recipe_id) DO NOTHING
		 `
	return r.exec(ctx, query, userID, recipeID)
}

// Remove deletes the pair and reports whether it was present.
func (r *PostgresRepository) Remove(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	t, err := table(rel)
	if err != nil {
		return false, err
	}
	query := `DELETE FROM ` + t + ` WHERE user_id = $1 AND recipe_id = $2`
	return r.exec(ctx, query, userID, recipeID)
}

// RecipeIDs is the user-side view: favRecipes for likes, savedRecipes for saves.
func (r *PostgresRepository) RecipeIDs(ctx context.Context, rel models.Relation, userID string) ([]string, error) {
	t, err := table(rel)
	if err != nil {
		return nil, err
	}
	query := `SELECT recipe_id FROM ` + t + ` WHERE user_id = $1 ORDER BY created_at, recipe_id`
	return r.ids(ctx, query, userID)
}

// UserIDs is the recipe-side view: likes or savedBy.
func (r *PostgresRepository) UserIDs(ctx context.Context, rel models.Relation, recipeID string) ([]string, error) {
	t, err := table(rel)
	if err != nil {
		return nil, err
	}
	query := `SELECT user_id FROM ` + t + ` WHERE recipe_id = $1 ORDER BY created_at, user_id`
	return r.ids(ctx, query, recipeID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ids(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select relation: %w", err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
