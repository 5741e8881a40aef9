package models

import (
	"time"

	"github.com/bottlemart/backend/pkg/types"
)

type User struct {
	ID    string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Name  string `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex:unique_user_email" json:"email"`
	// PasswordHash is a bcrypt hash; never serialized.
	PasswordHash string         `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	Role         types.UserRole `gorm:"column:role;type:varchar(16);not null;default:'buyer'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == types.UserRoleAdmin
}
