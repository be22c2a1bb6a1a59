package identity

import (
	"context"
	"testing"

	domainidentity "github.com/schoolfee/backend/internal/domain/identity"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserServiceFixture() (*UserService, *MockUserRepository) {
	repo := new(MockUserRepository)
	return NewUserService(repo, zap.NewNop()), repo
}

func TestUserServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an accountant", func(t *testing.T) {
		svc, repo := newUserServiceFixture()
		repo.On("ExistsByUsername", mock.Anything, "mwangi").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		dto, err := svc.Create(ctx, CreateUserInput{
			Username:    "mwangi",
			Password:    "strong3pass",
			Email:       "mwangi@school.example",
			DisplayName: "P. Mwangi",
			Role:        domainidentity.RoleAccountant,
		})
		require.NoError(t, err)
		assert.Equal(t, "mwangi", dto.Username)
		assert.Equal(t, "accountant", dto.Role)
		assert.Equal(t, "active", dto.Status)
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		svc, repo := newUserServiceFixture()
		repo.On("ExistsByUsername", mock.Anything, "mwangi").Return(true, nil)

		_, err := svc.Create(ctx, CreateUserInput{
			Username: "mwangi",
			Password: "strong3pass",
			Role:     domainidentity.RoleClerk,
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "USERNAME_TAKEN", domainErr.Code)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		svc, repo := newUserServiceFixture()
		repo.On("ExistsByUsername", mock.Anything, "mwangi").Return(false, nil)

		_, err := svc.Create(ctx, CreateUserInput{
			Username: "mwangi",
			Password: "strong3pass",
			Role:     domainidentity.Role("principal"),
		})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestUserServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("changes role and display name", func(t *testing.T) {
		svc, repo := newUserServiceFixture()
		user := newTestUser(t, domainidentity.RoleClerk)
		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("SaveWithLock", mock.Anything, user).Return(nil)

		role := domainidentity.RoleAccountant
		name := "J. Clerk"
		dto, err := svc.Update(ctx, UpdateUserInput{
			ID:          user.ID,
			DisplayName: &name,
			Role:        &role,
		})
		require.NoError(t, err)
		assert.Equal(t, "accountant", dto.Role)
		assert.Equal(t, "J. Clerk", dto.DisplayName)
	})
}

func TestUserServiceSetActive(t *testing.T) {
	ctx := context.Background()

	svc, repo := newUserServiceFixture()
	user := newTestUser(t, domainidentity.RoleClerk)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("SaveWithLock", mock.Anything, user).Return(nil)

	dto, err := svc.SetActive(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "deactivated", dto.Status)

	dto, err = svc.SetActive(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "active", dto.Status)
}

func TestUserServiceResetPassword(t *testing.T) {
	ctx := context.Background()

	svc, repo := newUserServiceFixture()
	user := newTestUser(t, domainidentity.RoleClerk)
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "fresh4pass"))
	assert.True(t, user.VerifyPassword("fresh4pass"))
	assert.False(t, user.VerifyPassword("correct1horse"))
}
