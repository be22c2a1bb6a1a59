package identity

import (
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// UserCreatedEvent is raised when a new user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("UserCreated", "User", u.ID),
		UserID:          u.ID,
		Username:        u.Username,
		Role:            u.Role,
	}
}
