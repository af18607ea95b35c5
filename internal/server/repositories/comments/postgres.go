// Package comments provides PostgreSQL-backed storage for recipe comments.
// Comments are append-only: there is no update or delete.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

const commentSelect = `
	SELECT c.id, c.recipe_id, c.text, c.created_at, u.id, u.name, u.email
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts comment authored by comment.User.ID. Only the id is needed
// from the author; use Get to read the comment back with the author resolved.
func (r *PostgresRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query :=
		`INSERT INTO comments (id, recipe_id, user_id, text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `
	err := r.db.QueryRowContext(ctx, query, comment.ID, comment.RecipeID, comment.User.ID, comment.Text).
		Scan(&comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comment, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id).Scan(
		&c.ID, &c.RecipeID, &c.Text, &c.CreatedAt, &c.User.ID, &c.User.Name, &c.User.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

// ListByRecipe returns the comments of a recipe in the order they were added.
func (r *PostgresRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, commentSelect+` WHERE c.recipe_id = $1 ORDER BY c.seq`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	result := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.RecipeID, &c.Text, &c.CreatedAt, &c.User.ID, &c.User.Name, &c.User.Email,
		); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
