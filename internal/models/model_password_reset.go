package models

import "time"

// PasswordReset is a single-use reset token. Only the SHA-256 hash of the
// token is stored.
type PasswordReset struct {
	ID        string     `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID    string     `gorm:"column:user_id;type:uuid;not null;index:idx_password_reset_user_id" json:"user_id"`
	TokenHash string     `gorm:"column:token_hash;type:varchar(64);not null;uniqueIndex:unique_password_reset_token_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at;default:null" json:"used_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (PasswordReset) TableName() string { return "password_reset" }
