package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID                   uuid.UUID `json:"id"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"`
	Status               string    `json:"status"`
	Company              string    `json:"company"`
	Phone                string    `json:"phone"`
	TwoFAEnabled         bool      `json:"two_fa_enabled"`
	TwoFAVerifiedSession bool      `json:"two_fa_verified_session"`
	CreatedBy            string    `json:"created_by"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status != UserStatusInactive
}
