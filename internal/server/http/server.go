// Package http exposes the CookMate REST API over gin.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/logging"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type RecipeService interface {
	CreateRecipe(ctx context.Context, callerID string, in models.RecipeFields) (*models.Recipe, error)
	ListRecipes(ctx context.Context) ([]*models.Recipe, error)
	GetRecipe(ctx context.Context, recipeID string) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, callerID, recipeID string, patch models.RecipePatch) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, callerID, recipeID string) error
	ToggleLike(ctx context.Context, callerID, recipeID string) (bool, error)
	ToggleSave(ctx context.Context, callerID, recipeID string) (bool, error)
	AddComment(ctx context.Context, callerID, recipeID, text string) (*models.Comment, error)
	ListComments(ctx context.Context, recipeID string) ([]*models.Comment, error)
}

type UserService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error)
}

type ImageService interface {
	PresignUpload(ctx context.Context, contentType string) (string, string, error)
}

type HTTPServer struct {
	address   string
	recipes   RecipeService
	users     UserService
	images    ImageService
	logger    logging.Logger
	jwtSecret []byte
	origins   []string
}

// NewHTTPServer wires the REST handlers. images may be nil, in which case
// upload URLs are not offered.
func NewHTTPServer(a string, l logging.Logger, rs RecipeService, us UserService, is ImageService, secretKey string, origins []string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		recipes:   rs,
		users:     us,
		images:    is,
		jwtSecret: []byte(secretKey),
		origins:   origins,
	}
}

// Router builds the gin engine with every route under /api.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	api := r.Group("/api")
	api.GET("/health", s.health)

	api.GET("/recipes", s.listRecipes)
	api.GET("/recipes/:id", s.getRecipe)
	api.GET("/recipes/:id/comments", s.listComments)

	api.POST("/users/register", s.register)
	api.POST("/users/login", s.login)
	api.GET("/users/verify-email", s.verifyEmail)
	api.POST("/users/resend-verification", s.resendVerification)

	auth := api.Group("/")
	auth.Use(s.authRequired())
	{
		auth.POST("/recipes", s.createRecipe)
		auth.POST("/recipes/images", s.presignImage)
		auth.PUT("/recipes/:id", s.updateRecipe)
		auth.DELETE("/recipes/:id", s.deleteRecipe)
		auth.POST("/recipes/:id/like", s.toggleLike)
		auth.POST("/recipes/:id/save", s.toggleSave)
		auth.POST("/recipes/:id/comments", s.addComment)

		auth.GET("/users/profile", s.profile)
		auth.PUT("/users/profile", s.updateProfile)
	}

	return r
}

func (s *HTTPServer) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(s.origins) == 0 || (len(s.origins) == 1 && s.origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cfg
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Serve returns as soon as Shutdown starts; wait for in-flight requests.
	<-stopped
	return nil
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
