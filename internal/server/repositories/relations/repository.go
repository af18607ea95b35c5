package relations

import (
	"context"

	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

// Repository stores the user⇄recipe relations as (user_id, recipe_id) pairs.
// Both the recipe-side and the user-side views are queries over the same rows.
type Repository interface {
	Exists(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error)
	Add(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error)
	Remove(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error)
	RecipeIDs(ctx context.Context, rel models.Relation, userID string) ([]string, error)
	UserIDs(ctx context.Context, rel models.Relation, recipeID string) ([]string, error)
}
