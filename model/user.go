package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account. Accounts created through Google sign-in have
// no password hash until one is set through a reset.
type User struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:36"`
	Username            string     `json:"username" gorm:"size:100;not null"`
	Email               string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash        string     `json:"-" gorm:"size:255"`
	GoogleID            string     `json:"googleId,omitempty" gorm:"size:64;index"`
	Avatar              string     `json:"avatar"`
	ResetPasswordToken  string     `json:"-" gorm:"size:64;index"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"-"`
}

// TableName pins the table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ClearReset drops any pending password reset.
func (u *User) ClearReset() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}

// PublicUser is the user shape returned alongside a session token.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Public strips everything but the identity fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}
