package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/logging"
	"github.com/dmitrijs2005/cookmate/internal/server/auth"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// -------- fakes --------

type fakeRecipes struct {
	RecipeService
	err      error
	liked    bool
	gotUser  string
	gotID    string
	gotIn    models.RecipeFields
	gotPatch models.RecipePatch
	gotText  string
}

func (f *fakeRecipes) CreateRecipe(ctx context.Context, callerID string, in models.RecipeFields) (*models.Recipe, error) {
	f.gotUser, f.gotIn = callerID, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Recipe{ID: "r-1", Title: in.Title, CreatedBy: models.Author{ID: callerID}}, nil
}

func (f *fakeRecipes) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Recipe{{ID: "r-1"}, {ID: "r-2"}}, nil
}

func (f *fakeRecipes) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Recipe{ID: id, Likes: []string{}}, nil
}

func (f *fakeRecipes) UpdateRecipe(ctx context.Context, callerID, id string, patch models.RecipePatch) (*models.Recipe, error) {
	f.gotUser, f.gotID, f.gotPatch = callerID, id, patch
	if f.err != nil {
		return nil, f.err
	}
	return &models.Recipe{ID: id, Title: *patch.Title}, nil
}

func (f *fakeRecipes) DeleteRecipe(ctx context.Context, callerID, id string) error {
	f.gotUser, f.gotID = callerID, id
	return f.err
}

func (f *fakeRecipes) ToggleLike(ctx context.Context, callerID, id string) (bool, error) {
	f.gotUser, f.gotID = callerID, id
	return f.liked, f.err
}

func (f *fakeRecipes) ToggleSave(ctx context.Context, callerID, id string) (bool, error) {
	f.gotUser, f.gotID = callerID, id
	return f.liked, f.err
}

func (f *fakeRecipes) AddComment(ctx context.Context, callerID, id, text string) (*models.Comment, error) {
	f.gotUser, f.gotID, f.gotText = callerID, id, text
	if f.err != nil {
		return nil, f.err
	}
	return &models.Comment{ID: "c-1", RecipeID: id, Text: text, User: models.Author{ID: callerID, Name: "Alice", Email: "a@x"}}, nil
}

func (f *fakeRecipes) ListComments(ctx context.Context, id string) ([]*models.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Comment{{ID: "c-1", RecipeID: id}}, nil
}

type fakeUsers struct {
	UserService
	err      error
	gotToken string
	gotName  *string
	gotEmail *string
}

func (f *fakeUsers) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.User{ID: "u-1", Email: email, Name: name}, "jwt", nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.User{ID: "u-1", Email: email, Name: "Alice"}, "jwt", nil
}

func (f *fakeUsers) VerifyEmail(ctx context.Context, token string) error {
	f.gotToken = token
	return f.err
}

func (f *fakeUsers) ResendVerification(ctx context.Context, email string) error {
	return f.err
}

func (f *fakeUsers) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Profile{
		User:           models.User{ID: userID, PasswordHash: "hash"},
		SavedRecipes:   []models.RecipeSummary{},
		CreatedRecipes: []models.RecipeSummary{{ID: "r-1"}},
		FavRecipes:     []models.RecipeSummary{},
	}, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	f.gotName, f.gotEmail = name, email
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: userID, Name: *name}, nil
}

type fakeImages struct {
	err         error
	contentType string
}

func (f *fakeImages) PresignUpload(ctx context.Context, contentType string) (string, string, error) {
	f.contentType = contentType
	if f.err != nil {
		return "", "", f.err
	}
	return "recipes/2024/1/1/k", "https://put.example/k", nil
}

// -------- helpers --------

func newTestServer(rs RecipeService, us UserService, is ImageService) http.Handler {
	s := NewHTTPServer(":0", logging.Nop{}, rs, us, is, secret, []string{"*"})
	return s.Router()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(secret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

// -------- tests --------

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeRecipes{}, &fakeUsers{}, nil)
	w := do(t, h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(&fakeRecipes{}, &fakeUsers{}, nil)

	tests := []struct {
		name  string
		authz string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/recipes/r-1/like", tt.authz, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, decode(t, w)["message"])
		})
	}

	expired, err := auth.GenerateToken("u-1", []byte(secret), -time.Minute)
	require.NoError(t, err)
	w := do(t, h, http.MethodPost, "/api/recipes/r-1/like", "Bearer "+expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipe(t *testing.T) {
	rs := &fakeRecipes{}
	h := newTestServer(rs, &fakeUsers{}, nil)

	body := map[string]any{
		"title":       "Soup",
		"description": "Warm",
		"ingredients": []string{"Water"},
		"steps":       []map[string]any{{"stepNumber": 1, "instruction": "Boil", "time": 5}},
	}
	w := do(t, h, http.MethodPost, "/api/recipes", bearer(t, "u-1"), body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-1", rs.gotUser)
	assert.Equal(t, []models.Step{{StepNumber: 1, Instruction: "Boil", Time: 5}}, rs.gotIn.Steps)

	got := decode(t, w)
	assert.Equal(t, "r-1", got["_id"])
	assert.Equal(t, "u-1", got["createdBy"].(map[string]any)["_id"])
}

func TestCreateRecipe_BadBody(t *testing.T) {
	h := newTestServer(&fakeRecipes{}, &fakeUsers{}, nil)
	w := do(t, h, http.MethodPost, "/api/recipes", bearer(t, "u-1"), "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: title is required", common.ErrorValidation), http.StatusBadRequest},
		{common.ErrorAlreadyExists, http.StatusBadRequest},
		{common.ErrorUnauthorized, http.StatusUnauthorized},
		{common.ErrorForbidden, http.StatusForbidden},
		{common.ErrorNotVerified, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: serialization failure", common.ErrConflictOnCommit), http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newTestServer(&fakeRecipes{err: tt.err}, &fakeUsers{}, nil)
			w := do(t, h, http.MethodPut, "/api/recipes/r-1", bearer(t, "u-1"), map[string]any{"title": "x"})
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode(t, w)["message"])
		})
	}
}

func TestValidationMessageIsSurfaced(t *testing.T) {
	status, msg := statusFor(fmt.Errorf("%w: title is required", common.ErrorValidation))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg, "title is required")

	_, msg = statusFor(errors.New("pq: password=secret"))
	assert.Equal(t, "internal error", msg, "internal details must not leak")
}

func TestPublicRecipeRoutes(t *testing.T) {
	rs := &fakeRecipes{}
	h := newTestServer(rs, &fakeUsers{}, nil)

	w := do(t, h, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = do(t, h, http.MethodGet, "/api/recipes/r-9", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r-9", rs.gotID)

	w = do(t, h, http.MethodGet, "/api/recipes/r-9/comments", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	rs.err = common.ErrorNotFound
	w = do(t, h, http.MethodGet, "/api/recipes/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleLikeAndSave(t *testing.T) {
	rs := &fakeRecipes{liked: true}
	h := newTestServer(rs, &fakeUsers{}, nil)

	w := do(t, h, http.MethodPost, "/api/recipes/r-1/like", bearer(t, "u-2"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, true, got["liked"])
	assert.Equal(t, "Recipe liked", got["message"])
	assert.Equal(t, "u-2", rs.gotUser)
	assert.Equal(t, "r-1", rs.gotID)

	rs.liked = false
	w = do(t, h, http.MethodPost, "/api/recipes/r-1/save", bearer(t, "u-2"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode(t, w)
	assert.Equal(t, false, got["saved"])
	assert.Equal(t, "Recipe unsaved", got["message"])
}

func TestDeleteRecipe(t *testing.T) {
	rs := &fakeRecipes{}
	h := newTestServer(rs, &fakeUsers{}, nil)

	w := do(t, h, http.MethodDelete, "/api/recipes/r-1", bearer(t, "u-1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Recipe deleted successfully", decode(t, w)["message"])

	rs.err = common.ErrorForbidden
	w = do(t, h, http.MethodDelete, "/api/recipes/r-1", bearer(t, "u-2"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddComment(t *testing.T) {
	rs := &fakeRecipes{}
	h := newTestServer(rs, &fakeUsers{}, nil)

	w := do(t, h, http.MethodPost, "/api/recipes/r-1/comments", bearer(t, "u-1"), map[string]string{"text": "Tasty"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tasty", rs.gotText)
	got := decode(t, w)
	assert.Equal(t, "Alice", got["user"].(map[string]any)["name"])
}

func TestPresignImage(t *testing.T) {
	h := newTestServer(&fakeRecipes{}, &fakeUsers{}, nil)
	w := do(t, h, http.MethodPost, "/api/recipes/images", bearer(t, "u-1"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code, "storage not configured")

	imgs := &fakeImages{}
	h = newTestServer(&fakeRecipes{}, &fakeUsers{}, imgs)
	w = do(t, h, http.MethodPost, "/api/recipes/images", bearer(t, "u-1"), map[string]string{"contentType": "image/jpeg"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "recipes/2024/1/1/k", got["key"])
	assert.Equal(t, "https://put.example/k", got["uploadUrl"])
	assert.Equal(t, "image/jpeg", imgs.contentType)

	w = do(t, h, http.MethodPost, "/api/recipes/images", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(&fakeRecipes{}, us, nil)

	w := do(t, h, http.MethodPost, "/api/users/register", "", map[string]string{"email": "a@x.io", "password": "secret1", "name": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	got := decode(t, w)
	assert.Equal(t, "u-1", got["userId"])
	assert.Equal(t, "jwt", got["token"])

	w = do(t, h, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@x.io", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jwt", decode(t, w)["token"])

	us.err = common.ErrorNotVerified
	w = do(t, h, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@x.io", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	us.err = common.ErrorAlreadyExists
	w = do(t, h, http.MethodPost, "/api/users/register", "", map[string]string{"email": "a@x.io", "password": "secret1", "name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyAndResend(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(&fakeRecipes{}, us, nil)

	w := do(t, h, http.MethodGet, "/api/users/verify-email?token=abc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", us.gotToken)

	w = do(t, h, http.MethodPost, "/api/users/resend-verification", "", map[string]string{"email": "a@x.io"})
	assert.Equal(t, http.StatusOK, w.Code)

	us.err = fmt.Errorf("%w: invalid or expired verification token", common.ErrorValidation)
	w = do(t, h, http.MethodGet, "/api/users/verify-email?token=old", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(&fakeRecipes{}, us, nil)

	w := do(t, h, http.MethodGet, "/api/users/profile", bearer(t, "u-7"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "u-7", got["_id"])
	assert.NotContains(t, got, "password")
	assert.NotContains(t, got, "PasswordHash")
	assert.Len(t, got["createdRecipes"], 1)

	w = do(t, h, http.MethodPut, "/api/users/profile", bearer(t, "u-7"), map[string]string{"name": "New"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, us.gotName)
	assert.Equal(t, "New", *us.gotName)
	assert.Nil(t, us.gotEmail)
	assert.Equal(t, "New", decode(t, w)["user"].(map[string]any)["name"])
}

func TestUpdateRecipe_PartialBody(t *testing.T) {
	rs := &fakeRecipes{}
	h := newTestServer(rs, &fakeUsers{}, nil)

	w := do(t, h, http.MethodPut, "/api/recipes/r-1", bearer(t, "u-1"), map[string]any{"title": "New", "image": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", rs.gotUser)
	require.NotNil(t, rs.gotPatch.Title)
	assert.Equal(t, "New", *rs.gotPatch.Title)
	require.NotNil(t, rs.gotPatch.Image, "explicit empty image is kept distinct from absent")
	assert.Empty(t, *rs.gotPatch.Image)
	assert.Nil(t, rs.gotPatch.Description)
	assert.Nil(t, rs.gotPatch.Ingredients)
	assert.Nil(t, rs.gotPatch.Steps)
	assert.Equal(t, "New", decode(t, w)["title"])
}
