package http

import (
	"net/http"

	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/gin-gonic/gin"
)

type recipeRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Ingredients []string      `json:"ingredients"`
	Steps       []models.Step `json:"steps"`
	Image       string        `json:"image"`
}

func (r recipeRequest) fields() models.RecipeFields {
	return models.RecipeFields{
		Title:       r.Title,
		Description: r.Description,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		Image:       r.Image,
	}
}

type commentRequest struct {
	Text string `json:"text"`
}

type imageRequest struct {
	ContentType string `json:"contentType"`
}

func (s *HTTPServer) createRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	recipe, err := s.recipes.CreateRecipe(c.Request.Context(), callerID(c), req.fields())
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "recipe created", "recipe_id", recipe.ID, "user_id", callerID(c))
	c.JSON(http.StatusCreated, recipe)
}

func (s *HTTPServer) listRecipes(c *gin.Context) {
	recipes, err := s.recipes.ListRecipes(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (s *HTTPServer) getRecipe(c *gin.Context) {
	recipe, err := s.recipes.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// updateRecipe merges the body into the stored recipe; absent keys are kept.
func (s *HTTPServer) updateRecipe(c *gin.Context) {
	var req models.RecipePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	recipe, err := s.recipes.UpdateRecipe(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (s *HTTPServer) deleteRecipe(c *gin.Context) {
	if err := s.recipes.DeleteRecipe(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "recipe deleted", "recipe_id", c.Param("id"), "user_id", callerID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

func (s *HTTPServer) toggleLike(c *gin.Context) {
	liked, err := s.recipes.ToggleLike(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	msg := "Recipe unliked"
	if liked {
		msg = "Recipe liked"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "liked": liked})
}

func (s *HTTPServer) toggleSave(c *gin.Context) {
	saved, err := s.recipes.ToggleSave(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	msg := "Recipe unsaved"
	if saved {
		msg = "Recipe saved"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "saved": saved})
}

func (s *HTTPServer) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := s.recipes.AddComment(c.Request.Context(), callerID(c), c.Param("id"), req.Text)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *HTTPServer) listComments(c *gin.Context) {
	comments, err := s.recipes.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// presignImage hands out an upload URL; the returned key goes into the
// recipe's image field.
func (s *HTTPServer) presignImage(c *gin.Context) {
	if s.images == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "image storage is not configured"})
		return
	}

	var req imageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	key, url, err := s.images.PresignUpload(c.Request.Context(), req.ContentType)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "uploadUrl": url})
}
