package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/identity"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Email       string
	Role        identity.Role
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string        // JWT ID to blacklist
	TokenTTL time.Duration // Remaining token lifetime
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// parseUserID parses a user ID string from token claims
func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	return id, nil
}

// userInfo builds the UserInfo view of a domain user
func userInfo(user *identity.User) UserInfo {
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Username
	}
	return UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: displayName,
		Email:       user.Email,
		Role:        user.Role,
	}
}
