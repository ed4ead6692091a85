package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, u := range m.users {
		if u.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func categoryPtr(c models.ExperienceCategory) *models.ExperienceCategory {
	return &c
}

func TestCreateUserGeneratesCode(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Role:               models.RoleParticipant,
		ExperienceCategory: categoryPtr(models.CategoryPro),
	})
	require.NoError(t, err)

	assert.Len(t, user.Code, codeLength)
	for _, r := range user.Code {
		assert.Contains(t, codeAlphabet, string(r))
	}
	assert.NotContains(t, user.Code, "0")
	assert.NotContains(t, user.Code, "O")
}

func TestCreateUserNormalizesSuppliedCode(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Code: "abc123",
		Role: models.RoleJudge,
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", user.Code)
}

func TestCreateParticipantRequiresCategory(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleParticipant})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experience category")
}

func TestCreateJudgeRejectsCategory(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Role:               models.RoleJudge,
		ExperienceCategory: categoryPtr(models.CategoryJunior),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only participants")
}

func TestUpdateUserRoleChangeClearsCategory(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Role:               models.RoleParticipant,
		ExperienceCategory: categoryPtr(models.CategoryPro),
	})
	require.NoError(t, err)

	judge := models.RoleJudge
	updated, err := svc.Update(context.Background(), user.ID, models.UpdateUserRequest{Role: &judge})
	require.NoError(t, err)
	assert.Equal(t, models.RoleJudge, updated.Role)
	assert.Nil(t, updated.ExperienceCategory)
}

func TestUpdateUserToParticipantWithoutCategory(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleJudge})
	require.NoError(t, err)

	participant := models.RoleParticipant
	_, err = svc.Update(context.Background(), user.ID, models.UpdateUserRequest{Role: &participant})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experience category")
}

func TestGetUserNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListUsersDefaultsPagination(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleJudge})
		require.NoError(t, err)
	}

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 3)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 3, pagination.TotalCount)
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleAdmin})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), user.ID, user.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own account")
}

func TestDeleteUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleJudge})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID, uuid.NewString()))
	_, err = svc.Get(context.Background(), user.ID)
	require.Error(t, err)
}

func TestGeneratedCodesAreUnique(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		user, err := svc.Create(context.Background(), models.CreateUserRequest{Role: models.RoleJudge})
		require.NoError(t, err)
		code := strings.ToUpper(user.Code)
		assert.False(t, seen[code])
		seen[code] = true
	}
}
