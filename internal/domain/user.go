package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBoss     Role = "BOSS"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole maps anything other than an exact "BOSS" to RoleEmployee.
func ParseRole(s string) Role {
	if Role(s) == RoleBoss {
		return RoleBoss
	}
	return RoleEmployee
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the public view of a user embedded in shift and application payloads.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
	}
}
