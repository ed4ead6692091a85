package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

type mockAuthRepo struct {
	users  map[string]*models.User
	byCode map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:  map[string]*models.User{},
		byCode: map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) addUser(u *models.User) {
	m.users[u.ID] = u
	m.byCode[u.Code] = u
}

func (m *mockAuthRepo) FindByCode(_ context.Context, code string) (*models.User, error) {
	u, ok := m.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func newAuthFixture() (*AuthService, *mockAuthRepo, *models.User) {
	repo := newMockAuthRepo()
	judge := &models.User{
		ID:   uuid.NewString(),
		Code: "JUDGE-7F3K",
		Role: models.RoleJudge,
	}
	repo.addUser(judge)
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "inkfest-test",
	})
	return svc, repo, judge
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo, judge := newAuthFixture()

	res, err := svc.Login(context.Background(), models.LoginRequest{Code: "judge-7f3k "})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, judge.ID, res.User.ID)
	assert.Equal(t, models.RoleJudge, res.User.Role)
	assert.Contains(t, repo.tokens, res.RefreshToken)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, judge.ID, claims.UserID)
	assert.Equal(t, "JUDGE-7F3K", claims.Code)
}

func TestLoginUnknownCode(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{Code: "NOPE-0000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown access code")
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, _ := newAuthFixture()

	login, err := svc.Login(context.Background(), models.LoginRequest{Code: "JUDGE-7F3K"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)

	// the used token can not be replayed
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired or revoked")
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, repo, _ := newAuthFixture()

	login, err := svc.Login(context.Background(), models.LoginRequest{Code: "JUDGE-7F3K"})
	require.NoError(t, err)
	repo.tokens[login.RefreshToken].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired or revoked")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, repo, judge := newAuthFixture()

	login, err := svc.Login(context.Background(), models.LoginRequest{Code: "JUDGE-7F3K"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, judge.ID))
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, _, _ := newAuthFixture()

	login, err := svc.Login(context.Background(), models.LoginRequest{Code: "JUDGE-7F3K"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _, _ := newAuthFixture()
	other := NewAuthService(newMockAuthRepo(), nil, nil, AuthConfig{
		AccessTokenSecret: "other-secret",
		AccessTokenExpiry: time.Minute,
	})

	login, err := svc.Login(context.Background(), models.LoginRequest{Code: "JUDGE-7F3K"})
	require.NoError(t, err)

	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
