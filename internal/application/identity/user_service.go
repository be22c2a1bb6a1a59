package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/identity"
	"github.com/schoolfee/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService handles staff account management. Only admins reach these
// operations; the HTTP layer enforces that.
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
	Role        identity.Role
}

// UpdateUserInput contains input for updating a user
type UpdateUserInput struct {
	ID          uuid.UUID
	Email       *string
	DisplayName *string
	Role        *identity.Role
}

// UserDTO represents user data returned to the HTTP layer
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Create creates a new staff user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	taken, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username is already in use")
	}

	user, err := identity.NewUser(input.Username, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := user.SetEmail(input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return toUserDTO(user), nil
}

// Update modifies a user's profile and role
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if input.Email != nil {
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.Role != nil && *input.Role != user.Role {
		if err := user.ChangeRole(*input.Role); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	return toUserDTO(user), nil
}

// SetActive activates or deactivates a user account
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if active {
		err = user.Activate()
	} else {
		err = user.Deactivate()
	}
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		s.logger.Error("Failed to change user status", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to change user status")
	}

	s.logger.Info("User status changed",
		zap.String("user_id", id.String()),
		zap.Bool("active", active))

	return toUserDTO(user), nil
}

// ResetPassword sets a new password without checking the old one
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to reset password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.logger.Info("Password reset by admin", zap.String("user_id", id.String()))

	return nil
}

// Get returns one user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	return toUserDTO(user), nil
}

// List returns users matching the filter with pagination
func (s *UserService) List(ctx context.Context, filter identity.UserFilter) (*shared.Paginated[UserDTO], error) {
	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = *toUserDTO(&users[i])
	}

	page := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &page, nil
}

func toUserDTO(user *identity.User) *UserDTO {
	return &UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Status:      string(user.Status),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
