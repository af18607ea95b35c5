package recipes

import (
	"context"

	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	LockForUpdate(ctx context.Context, id string) (string, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	List(ctx context.Context) ([]*models.Recipe, error)
	Update(ctx context.Context, id string, fields models.RecipeFields) error
	Delete(ctx context.Context, id string) error
	SummariesCreatedBy(ctx context.Context, userID string) ([]models.RecipeSummary, error)
	SummariesRelatedTo(ctx context.Context, rel models.Relation, userID string) ([]models.RecipeSummary, error)
}
