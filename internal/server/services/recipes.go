package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/logging"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ImageSigner turns a stored image key into a URL the client can fetch.
type ImageSigner interface {
	PresignDownload(ctx context.Context, key string) (string, error)
}

// RecipeService is the interaction coordinator. It is the only writer of
// recipe ownership, likes, saves and comments, and runs every operation that
// touches more than one entity inside a single transaction.
//
// Operations that change a recipe's relations start by locking the recipe
// row, so concurrent toggles on the same recipe are applied one after the
// other and each sees the state committed by the previous one.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageSigner
	logger      logging.Logger
}

// NewRecipeService constructs a RecipeService. images may be nil when object
// storage is not configured; recipes are then returned without imageUrl.
func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, images ImageSigner, logger logging.Logger) *RecipeService {
	return &RecipeService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "recipes"),
	}
}

// CreateRecipe stores a new recipe owned by callerID.
func (s *RecipeService) CreateRecipe(ctx context.Context, callerID string, in models.RecipeFields) (*models.Recipe, error) {
	if callerID == "" {
		return nil, common.ErrorUnauthorized
	}
	in, err := normalizeRecipeFields(in)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		Image:       in.Image,
		CreatedBy:   models.Author{ID: callerID},
	}

	var created *models.Recipe
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.touchCaller(ctx, tx, callerID); err != nil {
			return err
		}
		if _, err := s.repomanager.Recipes(tx).Create(ctx, recipe); err != nil {
			return fmt.Errorf("error creating recipe: %w", err)
		}
		var err error
		created, err = s.repomanager.Recipes(tx).Get(ctx, recipe.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.attachImageURL(ctx, created)
	return created, nil
}

// ToggleLike likes the recipe if callerID has not liked it yet and unlikes it
// otherwise. It reports whether the recipe is liked afterwards.
func (s *RecipeService) ToggleLike(ctx context.Context, callerID, recipeID string) (bool, error) {
	return s.toggle(ctx, models.RelationLike, callerID, recipeID)
}

// ToggleSave is ToggleLike for the saved-recipes relation.
func (s *RecipeService) ToggleSave(ctx context.Context, callerID, recipeID string) (bool, error) {
	return s.toggle(ctx, models.RelationSave, callerID, recipeID)
}

func (s *RecipeService) toggle(ctx context.Context, rel models.Relation, callerID, recipeID string) (bool, error) {
	if callerID == "" {
		return false, common.ErrorUnauthorized
	}
	if !validID(recipeID) {
		return false, common.ErrorNotFound
	}

	var on bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Recipes(tx).LockForUpdate(ctx, recipeID); err != nil {
			return err
		}
		if err := s.touchCaller(ctx, tx, callerID); err != nil {
			return err
		}

		relations := s.repomanager.Relations(tx)
		present, err := relations.Exists(ctx, rel, callerID, recipeID)
		if err != nil {
			return err
		}

		if present {
			if _, err := relations.Remove(ctx, rel, callerID, recipeID); err != nil {
				return err
			}
			on = false
			return nil
		}

		if _, err := relations.Add(ctx, rel, callerID, recipeID); err != nil {
			return err
		}
		on = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return on, nil
}

// AddComment appends a comment by callerID to the recipe and returns it with
// the author resolved. The comment is created in the same transaction that
// checks the recipe, so a failure leaves no comment behind.
func (s *RecipeService) AddComment(ctx context.Context, callerID, recipeID, text string) (*models.Comment, error) {
	if callerID == "" {
		return nil, common.ErrorUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", common.ErrorValidation)
	}
	if !validID(recipeID) {
		return nil, common.ErrorNotFound
	}

	var comment *models.Comment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Recipes(tx).LockForUpdate(ctx, recipeID); err != nil {
			return err
		}

		if _, err := s.repomanager.Users(tx).GetByID(ctx, callerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return err
		}

		comments := s.repomanager.Comments(tx)
		c := &models.Comment{
			ID:       uuid.NewString(),
			RecipeID: recipeID,
			Text:     text,
			User:     models.Author{ID: callerID},
		}
		if _, err := comments.Create(ctx, c); err != nil {
			return fmt.Errorf("error creating comment: %w", err)
		}

		var err error
		comment, err = comments.Get(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteRecipe removes a recipe owned by callerID together with its likes,
// saves and comments.
func (s *RecipeService) DeleteRecipe(ctx context.Context, callerID, recipeID string) error {
	if callerID == "" {
		return common.ErrorUnauthorized
	}
	if !validID(recipeID) {
		return common.ErrorNotFound
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		recipes := s.repomanager.Recipes(tx)
		owner, err := recipes.LockForUpdate(ctx, recipeID)
		if err != nil {
			return err
		}
		if owner != callerID {
			return common.ErrorForbidden
		}
		return recipes.Delete(ctx, recipeID)
	})
}

// UpdateRecipe applies patch to a recipe owned by callerID. Fields the patch
// leaves out keep their stored values; the merged result is validated whole.
func (s *RecipeService) UpdateRecipe(ctx context.Context, callerID, recipeID string, patch models.RecipePatch) (*models.Recipe, error) {
	if callerID == "" {
		return nil, common.ErrorUnauthorized
	}
	if !validID(recipeID) {
		return nil, common.ErrorNotFound
	}

	var updated *models.Recipe
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		recipes := s.repomanager.Recipes(tx)
		owner, err := recipes.LockForUpdate(ctx, recipeID)
		if err != nil {
			return err
		}
		if owner != callerID {
			return common.ErrorForbidden
		}

		current, err := recipes.Get(ctx, recipeID)
		if err != nil {
			return err
		}
		fields, err := normalizeRecipeFields(patch.Apply(current))
		if err != nil {
			return err
		}
		if err := recipes.Update(ctx, recipeID, fields); err != nil {
			return err
		}

		updated, err = recipes.Get(ctx, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.attachImageURL(ctx, updated)
	return updated, nil
}

func (s *RecipeService) GetRecipe(ctx context.Context, recipeID string) (*models.Recipe, error) {
	if !validID(recipeID) {
		return nil, common.ErrorNotFound
	}
	recipe, err := s.repomanager.Recipes(s.db).Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	s.attachImageURL(ctx, recipe)
	return recipe, nil
}

func (s *RecipeService) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	recipes, err := s.repomanager.Recipes(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		s.attachImageURL(ctx, r)
	}
	return recipes, nil
}

// ListComments returns the comments of a recipe, oldest first.
func (s *RecipeService) ListComments(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	if !validID(recipeID) {
		return nil, common.ErrorNotFound
	}
	if _, err := s.repomanager.Recipes(s.db).Get(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.repomanager.Comments(s.db).ListByRecipe(ctx, recipeID)
}

// touchCaller checks that the caller still exists and marks their record as
// changed. A missing caller is reported as unauthenticated.
func (s *RecipeService) touchCaller(ctx context.Context, tx dbx.DBTX, callerID string) error {
	err := s.repomanager.Users(tx).Touch(ctx, callerID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorUnauthorized
	}
	return err
}

func (s *RecipeService) attachImageURL(ctx context.Context, r *models.Recipe) {
	if s.images == nil || r == nil || r.Image == "" {
		return
	}
	url, err := s.images.PresignDownload(ctx, r.Image)
	if err != nil {
		s.logger.Warn(ctx, "image url presign failed", "recipe_id", r.ID, "error", err)
		return
	}
	r.ImageURL = url
}

// normalizeRecipeFields trims the input and checks it is a storable recipe.
func normalizeRecipeFields(in models.RecipeFields) (models.RecipeFields, error) {
	out := models.RecipeFields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Ingredients: make([]string, 0, len(in.Ingredients)),
		Steps:       make([]models.Step, 0, len(in.Steps)),
	}

	if out.Title == "" {
		return out, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if out.Description == "" {
		return out, fmt.Errorf("%w: description is required", common.ErrorValidation)
	}

	for i, ing := range in.Ingredients {
		ing = strings.TrimSpace(ing)
		if ing == "" {
			return out, fmt.Errorf("%w: ingredient %d is empty", common.ErrorValidation, i+1)
		}
		out.Ingredients = append(out.Ingredients, ing)
	}

	for i, st := range in.Steps {
		st.Instruction = strings.TrimSpace(st.Instruction)
		switch {
		case st.StepNumber <= 0:
			return out, fmt.Errorf("%w: step %d: stepNumber must be positive", common.ErrorValidation, i+1)
		case st.Instruction == "":
			return out, fmt.Errorf("%w: step %d: instruction is required", common.ErrorValidation, i+1)
		case st.Time < 0:
			return out, fmt.Errorf("%w: step %d: time must not be negative", common.ErrorValidation, i+1)
		}
		out.Steps = append(out.Steps, st)
	}

	return out, nil
}

// validID reports whether id can name a stored entity. Anything else cannot
// exist and is reported as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
