// Package recipes provides PostgreSQL-backed recipe storage. Relationship
// views (likes, savedBy, comments) are aggregated from their own tables at
// read time and never written here.
package recipes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

const recipeSelect = `
	SELECT r.id, r.title, r.description, r.ingredients, r.steps, r.image, r.created_at, r.updated_at,
		u.id, u.name, u.email,
		COALESCE((SELECT json_agg(l.user_id ORDER BY l.created_at) FROM recipe_likes l WHERE l.recipe_id = r.id), '[]'),
		COALESCE((SELECT json_agg(s.user_id ORDER BY s.created_at) FROM recipe_saves s WHERE s.recipe_id = r.id), '[]'),
		COALESCE((SELECT json_agg(c.id ORDER BY c.seq) FROM comments c WHERE c.recipe_id = r.id), '[]')
	FROM recipes r
	JOIN users u ON u.id = r.created_by
`

// PostgresRepository implements recipe storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts recipe with recipe.CreatedBy.ID as its owner and fills in
// the timestamps. Relationship views start empty.
func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	ingredients, steps, err := encodeLists(recipe.Ingredients, recipe.Steps)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO recipes (id, title, description, ingredients, steps, image, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at
		 `
	err = r.db.QueryRowContext(ctx, query,
		recipe.ID, recipe.Title, recipe.Description, ingredients, steps, recipe.Image, recipe.CreatedBy.ID,
	).Scan(&recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	recipe.Likes = []string{}
	recipe.SavedBy = []string{}
	recipe.Comments = []string{}
	return recipe, nil
}

// LockForUpdate takes a row lock on the recipe for the rest of the
// transaction and returns its owner id. Every cross-entity change of a
// recipe starts here, which serializes them per recipe.
func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) (string, error) {
	query := `SELECT created_by FROM recipes WHERE id = $1 FOR UPDATE`

	var owner string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return owner, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Recipe, error) {
	row := r.db.QueryRowContext(ctx, recipeSelect+` WHERE r.id = $1`, id)

	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

// List returns every recipe in creation order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, recipeSelect+` ORDER BY r.created_at, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipes: %w", err)
	}
	defer rows.Close()

	result := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update replaces the mutable fields. Owner and relations are left alone.
func (r *PostgresRepository) Update(ctx context.Context, id string, fields models.RecipeFields) error {
	ingredients, steps, err := encodeLists(fields.Ingredients, fields.Steps)
	if err != nil {
		return err
	}

	query :=
		`UPDATE recipes SET title = $2, description = $3, ingredients = $4, steps = $5, image = $6, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, fields.Title, fields.Description, ingredients, steps, fields.Image)
}

// Delete removes the recipe. Likes, saves and comments go with it through
// ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM recipes WHERE id = $1`, id)
}

func (r *PostgresRepository) SummariesCreatedBy(ctx context.Context, userID string) ([]models.RecipeSummary, error) {
	query :=
		`SELECT id, title, description, image, ingredients FROM recipes
		 WHERE created_by = $1
		 ORDER BY created_at, id
		 `
	return r.summaries(ctx, query, userID)
}

// SummariesRelatedTo returns the recipes userID has liked or saved, oldest
// relation first.
func (r *PostgresRepository) SummariesRelatedTo(ctx context.Context, rel models.Relation, userID string) ([]models.RecipeSummary, error) {
	if !rel.Valid() {
		return nil, fmt.Errorf("unknown relation %q", rel)
	}
	query :=
		`SELECT r.id, r.title, r.description, r.image, r.ingredients FROM recipes r
		 JOIN ` + string(rel) + ` x ON x.recipe_id = r.id
		 WHERE x.user_id = $1
		 ORDER BY x.created_at, r.id
		 `
	return r.summaries(ctx, query, userID)
}

func (r *PostgresRepository) summaries(ctx context.Context, query string, args ...any) ([]models.RecipeSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipe summaries: %w", err)
	}
	defer rows.Close()

	result := []models.RecipeSummary{}
	for rows.Next() {
		var item models.RecipeSummary
		var ingredients []byte
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Image, &ingredients); err != nil {
			return nil, err
		}
		if err := decodeJSON(ingredients, &item.Ingredients); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	var recipe models.Recipe
	var ingredients, steps, likes, savedBy, comments []byte

	if err := s.Scan(
		&recipe.ID, &recipe.Title, &recipe.Description, &ingredients, &steps, &recipe.Image,
		&recipe.CreatedAt, &recipe.UpdatedAt,
		&recipe.CreatedBy.ID, &recipe.CreatedBy.Name, &recipe.CreatedBy.Email,
		&likes, &savedBy, &comments,
	); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{ingredients, &recipe.Ingredients},
		{steps, &recipe.Steps},
		{likes, &recipe.Likes},
		{savedBy, &recipe.SavedBy},
		{comments, &recipe.Comments},
	} {
		if err := decodeJSON(f.raw, f.dest); err != nil {
			return nil, err
		}
	}
	return &recipe, nil
}

func encodeLists(ingredients []string, steps []models.Step) (string, string, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	if steps == nil {
		steps = []models.Step{}
	}
	i, err := json.Marshal(ingredients)
	if err != nil {
		return "", "", fmt.Errorf("encode ingredients: %w", err)
	}
	s, err := json.Marshal(steps)
	if err != nil {
		return "", "", fmt.Errorf("encode steps: %w", err)
	}
	return string(i), string(s), nil
}

func decodeJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		raw = []byte("[]")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}
