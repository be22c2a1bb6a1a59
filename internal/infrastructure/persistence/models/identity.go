package models

import (
	"time"

	"github.com/schoolfee/backend/internal/domain/identity"
)

// UserModel is the persistence model for the staff User aggregate
type UserModel struct {
	AggregateModel
	Username       string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email          string              `gorm:"type:varchar(200)"`
	PasswordHash   string              `gorm:"type:varchar(100);not null"`
	DisplayName    string              `gorm:"type:varchar(100)"`
	Role           identity.Role       `gorm:"type:varchar(20);not null"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"type:varchar(45)"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		DisplayName:    m.DisplayName,
		Role:           m.Role,
		Status:         m.Status,
		LastLoginAt:    m.LastLoginAt,
		LastLoginIP:    m.LastLoginIP,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
	}
	m.PopulateAggregateRoot(&u.BaseAggregateRoot)
	return u
}

// UserModelFromDomain converts a domain User to its persistence model
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		DisplayName:    u.DisplayName,
		Role:           u.Role,
		Status:         u.Status,
		LastLoginAt:    u.LastLoginAt,
		LastLoginIP:    u.LastLoginIP,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
