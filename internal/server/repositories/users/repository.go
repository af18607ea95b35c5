package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error
	UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error)
	Touch(ctx context.Context, id string) error
}
