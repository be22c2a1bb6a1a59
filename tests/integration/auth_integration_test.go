package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appidentity "github.com/schoolfee/backend/internal/application/identity"
	"github.com/schoolfee/backend/internal/domain/identity"
	"github.com/schoolfee/backend/internal/infrastructure/auth"
	"github.com/schoolfee/backend/internal/infrastructure/config"
	"github.com/schoolfee/backend/internal/infrastructure/persistence"
)

func newAuthFixture(t *testing.T, tdb *TestDB) (*appidentity.AuthService, *appidentity.UserService) {
	t.Helper()

	userRepo := persistence.NewGormUserRepository(tdb.DB)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-secret-key-123456",
		RefreshSecret:          "integration-test-refresh-key-123456",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "schoolfee-test",
	})
	log := zaptest.NewLogger(t)

	authService := appidentity.NewAuthService(
		userRepo, jwtService, auth.NewInMemoryTokenBlacklist(),
		appidentity.DefaultAuthServiceConfig(), log,
	)
	userService := appidentity.NewUserService(userRepo, log)
	return authService, userService
}

func TestLoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	authService, userService := newAuthFixture(t, tdb)
	ctx := context.Background()

	created, err := userService.Create(ctx, appidentity.CreateUserInput{
		Username:    "bursar",
		Password:    "S3cure-pass!",
		DisplayName: "School Bursar",
		Role:        identity.RoleAccountant,
	})
	require.NoError(t, err)
	require.Equal(t, "accountant", created.Role)

	result, err := authService.Login(ctx, appidentity.LoginInput{
		Username: "bursar",
		Password: "S3cure-pass!",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "bursar", result.User.Username)
	require.Equal(t, identity.RoleAccountant, result.User.Role)

	// Refresh issues a new token pair
	refreshed, err := authService.RefreshToken(ctx, appidentity.RefreshTokenInput{
		RefreshToken: result.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	// Wrong password is rejected
	_, err = authService.Login(ctx, appidentity.LoginInput{
		Username: "bursar",
		Password: "wrong-password",
	})
	require.Error(t, err)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	authService, userService := newAuthFixture(t, tdb)
	ctx := context.Background()

	_, err := userService.Create(ctx, appidentity.CreateUserInput{
		Username:    "clerk1",
		Password:    "S3cure-pass!",
		DisplayName: "Front Office",
		Role:        identity.RoleClerk,
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = authService.Login(ctx, appidentity.LoginInput{
			Username: "clerk1",
			Password: "bad-guess",
		})
		require.Error(t, err)
	}

	// The right password no longer works while the account is locked
	_, err = authService.Login(ctx, appidentity.LoginInput{
		Username: "clerk1",
		Password: "S3cure-pass!",
	})
	require.Error(t, err)
}

func TestChangePasswordInvalidatesOldCredentials(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	authService, userService := newAuthFixture(t, tdb)
	ctx := context.Background()

	created, err := userService.Create(ctx, appidentity.CreateUserInput{
		Username:    "headteacher",
		Password:    "Original-pass1",
		DisplayName: "Head Teacher",
		Role:        identity.RoleAdmin,
	})
	require.NoError(t, err)

	err = authService.ChangePassword(ctx, appidentity.ChangePasswordInput{
		UserID:      created.ID,
		OldPassword: "Original-pass1",
		NewPassword: "Replaced-pass2",
	})
	require.NoError(t, err)

	_, err = authService.Login(ctx, appidentity.LoginInput{Username: "headteacher", Password: "Original-pass1"})
	require.Error(t, err)

	result, err := authService.Login(ctx, appidentity.LoginInput{Username: "headteacher", Password: "Replaced-pass2"})
	require.NoError(t, err)
	require.Equal(t, identity.RoleAdmin, result.User.Role)
}
