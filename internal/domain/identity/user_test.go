package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser("jmwangi", "s3curePass1", RoleClerk)
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		role     Role
		wantErr  bool
	}{
		{"valid clerk", "jmwangi", "s3curePass1", RoleClerk, false},
		{"valid admin", "head.admin", "adminPass99", RoleAdmin, false},
		{"short username", "ab", "s3curePass1", RoleClerk, true},
		{"bad username chars", "j mwangi", "s3curePass1", RoleClerk, true},
		{"short password", "jmwangi", "abc1", RoleClerk, true},
		{"password without digit", "jmwangi", "onlyletters", RoleClerk, true},
		{"invalid role", "jmwangi", "s3curePass1", Role("teacher"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.username, tt.password, tt.role)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, UserStatusActive, u.Status)
			assert.NotEmpty(t, u.PasswordHash)
			assert.NotEqual(t, tt.password, u.PasswordHash)
		})
	}
}

func TestUserVerifyPassword(t *testing.T) {
	u := createTestUser(t)
	assert.True(t, u.VerifyPassword("s3curePass1"))
	assert.False(t, u.VerifyPassword("wrongPass1"))
}

func TestUserChangePassword(t *testing.T) {
	t.Run("with correct old password", func(t *testing.T) {
		u := createTestUser(t)
		require.NoError(t, u.ChangePassword("s3curePass1", "n3wPassword9"))
		assert.True(t, u.VerifyPassword("n3wPassword9"))
	})

	t.Run("with wrong old password", func(t *testing.T) {
		u := createTestUser(t)
		assert.Error(t, u.ChangePassword("wrongPass1", "n3wPassword9"))
	})
}

func TestUserChangeRole(t *testing.T) {
	u := createTestUser(t)
	require.NoError(t, u.ChangeRole(RoleAccountant))
	assert.Equal(t, RoleAccountant, u.Role)

	assert.Error(t, u.ChangeRole(RoleAccountant))
	assert.Error(t, u.ChangeRole(Role("teacher")))
}

func TestUserLockout(t *testing.T) {
	t.Run("locks after max attempts", func(t *testing.T) {
		u := createTestUser(t)

		locked := u.RecordLoginFailure(3, time.Hour)
		assert.False(t, locked)
		locked = u.RecordLoginFailure(3, time.Hour)
		assert.False(t, locked)
		locked = u.RecordLoginFailure(3, time.Hour)
		assert.True(t, locked)
		assert.True(t, u.IsLocked())
	})

	t.Run("expired lock no longer counts", func(t *testing.T) {
		u := createTestUser(t)
		u.Lock(-time.Minute)
		assert.False(t, u.IsLocked())
	})

	t.Run("successful login resets attempts", func(t *testing.T) {
		u := createTestUser(t)
		u.RecordLoginFailure(5, time.Hour)
		u.RecordLoginSuccess("10.0.0.1")
		assert.Equal(t, 0, u.FailedAttempts)
		assert.NotNil(t, u.LastLoginAt)
	})
}

func TestUserActivation(t *testing.T) {
	u := createTestUser(t)

	require.NoError(t, u.Deactivate())
	assert.Equal(t, UserStatusDeactivated, u.Status)
	assert.Error(t, u.Deactivate())

	require.NoError(t, u.Activate())
	assert.Equal(t, UserStatusActive, u.Status)
	assert.Error(t, u.Activate())
}

func TestUserSetEmail(t *testing.T) {
	u := createTestUser(t)
	require.NoError(t, u.SetEmail("J.Mwangi@School.ac.ke"))
	assert.Equal(t, "j.mwangi@school.ac.ke", u.Email)

	assert.Error(t, u.SetEmail("not-an-email"))
}
