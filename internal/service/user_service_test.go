package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]*models.User
	audit []*models.AuditLog
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	dup := *u
	return &dup, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			dup := *u
			return &dup, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	dup := *user
	f.users[user.ID] = &dup
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	dup := *user
	f.users[user.ID] = &dup
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = false
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.audit = append(f.audit, log)
	return nil
}

func newUserService(repo userRepository) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceListPaginates(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "1", Username: "tech.a"})
	users, pagination, err := newUserService(repo).List(context.Background(), models.UserFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestUserServiceCreateHashesAndLowercases(t *testing.T) {
	repo := newFakeUserRepo()
	user, err := newUserService(repo).Create(context.Background(), CreateUserRequest{
		Username: "TechOne",
		FullName: "Tech One",
		Password: "secret1",
		Role:     models.RoleTechnician,
		Active:   true,
	}, "actor", models.LoginRequest{IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "techone", user.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

	require.Len(t, repo.audit, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.audit[0].Action)
	assert.Equal(t, "10.0.0.1", repo.audit[0].IPAddress)
}

func TestUserServiceCreateRejectsDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "1", Username: "techone"})
	_, err := newUserService(repo).Create(context.Background(), CreateUserRequest{
		Username: "TechOne",
		FullName: "Tech One",
		Password: "secret1",
		Role:     models.RoleTechnician,
	}, "actor", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateValidatesPayload(t *testing.T) {
	_, err := newUserService(newFakeUserRepo()).Create(context.Background(), CreateUserRequest{
		Username: "ab",
		Password: "short",
		Role:     "JANITOR",
	}, "actor", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateAppliesChangesAndAudits(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "1", Username: "tech.a", FullName: "Old", Role: models.RoleTechnician, Active: true})
	inactive := false
	user, err := newUserService(repo).Update(context.Background(), "1", UpdateUserRequest{
		FullName: "New",
		Role:     models.RoleSupportCenter,
		Active:   &inactive,
	}, "actor", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.RoleSupportCenter, user.Role)
	assert.False(t, user.Active)
	require.Len(t, repo.audit, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.audit[0].Action)
	assert.NotEmpty(t, repo.audit[0].OldValues)
}

func TestUserServiceUpdateMissingUser(t *testing.T) {
	_, err := newUserService(newFakeUserRepo()).Update(context.Background(), "missing", UpdateUserRequest{
		FullName: "New",
		Role:     models.RoleTechnician,
	}, "actor", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteDeactivates(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "1", Username: "tech.a", Role: models.RoleTechnician, Active: true})
	err := newUserService(repo).Delete(context.Background(), "1", "actor", models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, repo.users["1"].Active)
	require.Len(t, repo.audit, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.audit[0].Action)
}
