package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/comments"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/relations"
	"github.com/dmitrijs2005/cookmate/internal/server/repositories/users"
)

// -------- test fakes --------

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// store is the in-memory state shared by the fake repositories.
type store struct {
	users     map[string]*models.User
	recipes   map[string]*models.Recipe
	comments  []*models.Comment
	relations map[models.Relation]map[[2]string]bool

	touched []string
	locked  []string
	failOn  string
}

func newStore() *store {
	return &store{
		users:   map[string]*models.User{},
		recipes: map[string]*models.Recipe{},
		relations: map[models.Relation]map[[2]string]bool{
			models.RelationLike: {},
			models.RelationSave: {},
		},
	}
}

func (s *store) fail(op string) error {
	if s.failOn == op {
		return errBoom{}
	}
	return nil
}

func (s *store) addUser(id, name, email string) *models.User {
	u := &models.User{ID: id, Name: name, Email: email, Verified: true}
	s.users[id] = u
	return u
}

func (s *store) addRecipe(id, owner string) *models.Recipe {
	r := &models.Recipe{ID: id, Title: "T", Description: "D", CreatedBy: models.Author{ID: owner}}
	s.recipes[id] = r
	return r
}

func (s *store) related(rel models.Relation, userID, recipeID string) bool {
	return s.relations[rel][[2]string{userID, recipeID}]
}

type fakeUsersRepo struct {
	users.Repository
	s *store
}

func (f *fakeUsersRepo) Touch(ctx context.Context, id string) error {
	if err := f.s.fail("touch"); err != nil {
		return err
	}
	if _, ok := f.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	f.s.touched = append(f.s.touched, id)
	return nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := f.s.fail("user.get"); err != nil {
		return nil, err
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := f.s.fail("user.getByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range f.s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := f.s.fail("user.create"); err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) MarkVerified(ctx context.Context, id string) error {
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Verified, u.VerificationToken, u.VerificationTokenExpiry = true, nil, nil
	return nil
}

func (f *fakeUsersRepo) SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error {
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.VerificationToken, u.VerificationTokenExpiry = &token, &expires
	return nil
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range f.s.users {
		if other.ID != id && other.Email == email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.Name, u.Email = name, email
	cp := *u
	return &cp, nil
}

type fakeRecipesRepo struct {
	recipes.Repository
	s *store
}

func (f *fakeRecipesRepo) Create(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	if err := f.s.fail("recipe.create"); err != nil {
		return nil, err
	}
	cp := *r
	f.s.recipes[r.ID] = &cp
	return r, nil
}

func (f *fakeRecipesRepo) LockForUpdate(ctx context.Context, id string) (string, error) {
	r, ok := f.s.recipes[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	f.s.locked = append(f.s.locked, id)
	return r.CreatedBy.ID, nil
}

func (f *fakeRecipesRepo) Get(ctx context.Context, id string) (*models.Recipe, error) {
	r, ok := f.s.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	if u, ok := f.s.users[cp.CreatedBy.ID]; ok {
		cp.CreatedBy = models.Author{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	cp.Likes = f.userIDs(models.RelationLike, id)
	cp.SavedBy = f.userIDs(models.RelationSave, id)
	cp.Comments = []string{}
	for _, c := range f.s.comments {
		if c.RecipeID == id {
			cp.Comments = append(cp.Comments, c.ID)
		}
	}
	return &cp, nil
}

func (f *fakeRecipesRepo) userIDs(rel models.Relation, recipeID string) []string {
	out := []string{}
	for k := range f.s.relations[rel] {
		if k[1] == recipeID {
			out = append(out, k[0])
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeRecipesRepo) List(ctx context.Context) ([]*models.Recipe, error) {
	if err := f.s.fail("recipe.list"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(f.s.recipes))
	for id := range f.s.recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := []*models.Recipe{}
	for _, id := range ids {
		r, _ := f.Get(ctx, id)
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecipesRepo) Update(ctx context.Context, id string, fields models.RecipeFields) error {
	r, ok := f.s.recipes[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Title, r.Description, r.Ingredients, r.Steps, r.Image =
		fields.Title, fields.Description, fields.Ingredients, fields.Steps, fields.Image
	return nil
}

func (f *fakeRecipesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.s.recipes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.recipes, id)
	return nil
}

func (f *fakeRecipesRepo) SummariesCreatedBy(ctx context.Context, userID string) ([]models.RecipeSummary, error) {
	out := []models.RecipeSummary{}
	for _, r := range f.s.recipes {
		if r.CreatedBy.ID == userID {
			out = append(out, models.RecipeSummary{ID: r.ID, Title: r.Title})
		}
	}
	return out, nil
}

func (f *fakeRecipesRepo) SummariesRelatedTo(ctx context.Context, rel models.Relation, userID string) ([]models.RecipeSummary, error) {
	if err := f.s.fail("summaries." + string(rel)); err != nil {
		return nil, err
	}
	out := []models.RecipeSummary{}
	for k := range f.s.relations[rel] {
		if k[0] == userID {
			out = append(out, models.RecipeSummary{ID: k[1], Title: f.s.recipes[k[1]].Title})
		}
	}
	return out, nil
}

type fakeCommentsRepo struct {
	comments.Repository
	s *store
}

func (f *fakeCommentsRepo) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if err := f.s.fail("comment.create"); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Now()
	cp := *c
	f.s.comments = append(f.s.comments, &cp)
	return c, nil
}

func (f *fakeCommentsRepo) Get(ctx context.Context, id string) (*models.Comment, error) {
	for _, c := range f.s.comments {
		if c.ID == id {
			cp := *c
			u := f.s.users[c.User.ID]
			cp.User = models.Author{ID: u.ID, Name: u.Name, Email: u.Email}
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCommentsRepo) ListByRecipe(ctx context.Context, recipeID string) ([]*models.Comment, error) {
	out := []*models.Comment{}
	for _, c := range f.s.comments {
		if c.RecipeID == recipeID {
			got, _ := f.Get(ctx, c.ID)
			out = append(out, got)
		}
	}
	return out, nil
}

type fakeRelationsRepo struct {
	relations.Repository
	s *store
}

func (f *fakeRelationsRepo) Exists(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	if err := f.s.fail("relation.exists"); err != nil {
		return false, err
	}
	return f.s.related(rel, userID, recipeID), nil
}

func (f *fakeRelationsRepo) Add(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	if err := f.s.fail("relation.add"); err != nil {
		return false, err
	}
	k := [2]string{userID, recipeID}
	if f.s.relations[rel][k] {
		return false, nil
	}
	f.s.relations[rel][k] = true
	return true, nil
}

func (f *fakeRelationsRepo) Remove(ctx context.Context, rel models.Relation, userID, recipeID string) (bool, error) {
	k := [2]string{userID, recipeID}
	if !f.s.relations[rel][k] {
		return false, nil
	}
	delete(f.s.relations[rel], k)
	return true, nil
}

type fakeRepoManager struct {
	s *store
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &fakeUsersRepo{s: m.s} }
func (m *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository          { return &fakeRecipesRepo{s: m.s} }
func (m *fakeRepoManager) Comments(dbx.DBTX) comments.Repository        { return &fakeCommentsRepo{s: m.s} }
func (m *fakeRepoManager) Relations(dbx.DBTX) relations.Repository      { return &fakeRelationsRepo{s: m.s} }

type fakeImages struct {
	err error
}

func (f *fakeImages) PresignDownload(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://img.example/" + key, nil
}

type fakePublisher struct {
	sent []string
	err  error
}

func (p *fakePublisher) PublishVerificationRequested(ctx context.Context, email, name, token string) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, email+"|"+token)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// mockTx queues the transaction boundaries dbx.WithTx is expected to hit.
type mockTx struct {
	mock sqlmock.Sqlmock
}

func (m *mockTx) commits(n int) {
	for i := 0; i < n; i++ {
		m.mock.ExpectBegin()
		m.mock.ExpectCommit()
	}
}

func (m *mockTx) rollbacks(n int) {
	for i := 0; i < n; i++ {
		m.mock.ExpectBegin()
		m.mock.ExpectRollback()
	}
}

func (m *mockTx) commitFails(err error) {
	m.mock.ExpectBegin()
	m.mock.ExpectCommit().WillReturnError(err)
}
