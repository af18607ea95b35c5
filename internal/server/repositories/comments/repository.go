package comments

import (
	"context"

	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	ListByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error)
}
