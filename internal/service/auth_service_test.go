package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type fakeAuthRepo struct {
	user             *models.User
	refreshTokens    map[string]*models.RefreshToken
	audit            []*models.AuditLog
	created          *models.User
	lastLoginUpdated bool
	revokedAllFor    string
}

func newFakeAuthRepo(user *models.User) *fakeAuthRepo {
	return &fakeAuthRepo{user: user, refreshTokens: make(map[string]*models.RefreshToken)}
}

func (f *fakeAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.user == nil || f.user.Username != username {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	f.lastLoginUpdated = true
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if f.user != nil && f.user.ID == id {
		f.user.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	f.revokedAllFor = userID
	for _, t := range f.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.audit = append(f.audit, log)
	return nil
}

func (f *fakeAuthRepo) Create(ctx context.Context, user *models.User) error {
	f.created = user
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(repo authUserRepository, opts ...func(*AuthConfig)) *AuthService {
	cfg := AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewAuthService(repo, validator.New(), zap.NewNop(), cfg)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Code
}

func TestAuthServiceLoginIssuesTokens(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "123", Username: "tech1", PasswordHash: hashOf(t, "password"), Active: true, Role: models.RoleTechnician})
	res, err := newAuthService(repo).Login(context.Background(), models.LoginRequest{Username: "tech1", Password: "password"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "tech1", res.User.Username)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.audit, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audit[0].Action)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		username string
		password string
		wantCode string
	}{
		{
			name:     "unknown username",
			user:     nil,
			username: "ghost",
			password: "password",
			wantCode: appErrors.ErrInvalidCredentials.Code,
		},
		{
			name:     "wrong password",
			user:     &models.User{ID: "1", Username: "tech1", PasswordHash: hashOf(t, "password"), Active: true},
			username: "tech1",
			password: "nope",
			wantCode: appErrors.ErrInvalidCredentials.Code,
		},
		{
			name:     "inactive account",
			user:     &models.User{ID: "1", Username: "tech1", PasswordHash: hashOf(t, "password"), Active: false},
			username: "tech1",
			password: "password",
			wantCode: appErrors.ErrInactiveAccount.Code,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newAuthService(newFakeAuthRepo(tc.user))
			_, err := svc.Login(context.Background(), models.LoginRequest{Username: tc.username, Password: tc.password})
			assert.Equal(t, tc.wantCode, errCode(t, err))
		})
	}
}

func TestAuthServiceSingleSessionRevokesOldTokens(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", PasswordHash: hashOf(t, "password"), Active: true})
	repo.refreshTokens["stale"] = &models.RefreshToken{ID: "rt0", UserID: "u1", Token: "stale", ExpiresAt: time.Now().Add(time.Hour)}

	svc := newAuthService(repo, func(cfg *AuthConfig) { cfg.SingleSession = true })
	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "tech1", Password: "password"})
	require.NoError(t, err)

	assert.Equal(t, "u1", repo.revokedAllFor)
	assert.True(t, repo.refreshTokens["stale"].Revoked)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", PasswordHash: "hash", Active: true, Role: models.RoleTechnician})
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}

	res, err := newAuthService(repo).RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceRefreshRejectsExpiredToken(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", Active: true})
	repo.refreshTokens["old"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(-time.Minute)}

	_, err := newAuthService(repo).RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}

func TestAuthServiceRefreshRejectsRevokedToken(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", Active: true})
	repo.refreshTokens["revoked"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "revoked", ExpiresAt: time.Now().Add(time.Hour), Revoked: true}

	_, err := newAuthService(repo).RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "revoked"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errCode(t, err))
}

func TestAuthServiceLogoutRequiresOwnership(t *testing.T) {
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", Active: true})
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthService(repo)

	err := svc.Logout(context.Background(), "token", "someone-else", models.LoginRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))

	require.NoError(t, svc.Logout(context.Background(), "token", "u1", models.LoginRequest{}))
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash := hashOf(t, "oldpassword")
	repo := newFakeAuthRepo(&models.User{ID: "u1", Username: "tech1", PasswordHash: oldHash, Active: true})
	svc := newAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "oldpassword", NewPassword: "newpassword"}))
	assert.NotEqual(t, oldHash, repo.user.PasswordHash)
	assert.Equal(t, "u1", repo.revokedAllFor)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	svc := newAuthService(newFakeAuthRepo(nil))
	token, _, err := svc.generateAccessToken(&models.User{ID: "u1", Username: "tech1", Role: models.RoleTechnician})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTechnician, claims.Role)

	_, err = svc.ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestAuthServiceTokenCarriesIssuerAndAudience(t *testing.T) {
	svc := newAuthService(newFakeAuthRepo(nil), func(cfg *AuthConfig) {
		cfg.Issuer = "testtag-api"
		cfg.Audience = []string{"testtag-clients"}
	})
	token, _, err := svc.generateAccessToken(&models.User{ID: "u1", Username: "tech1", Role: models.RoleTechnician})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testtag-api", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"testtag-clients"}, claims.Audience)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newFakeAuthRepo(nil)
	svc := newAuthService(repo, func(cfg *AuthConfig) { cfg.AllowRegistration = true })

	user, err := svc.Register(context.Background(), models.RegisterRequest{Username: "NewTech", Password: "secret1", FullName: "New Tech"})
	require.NoError(t, err)
	assert.Equal(t, "newtech", user.Username)
	assert.Equal(t, models.RoleTechnician, user.Role)
	assert.True(t, user.Active)
	require.NotNil(t, repo.created)
}

func TestAuthServiceRegisterDisabled(t *testing.T) {
	svc := newAuthService(newFakeAuthRepo(nil))
	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "x1z", Password: "secret1", FullName: "X"})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
}
