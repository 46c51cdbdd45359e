// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role struct {
	BaseModel
	Name        RoleName `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Description string   `json:"description" gorm:"size:255"`
}

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	RoleID       uint       `json:"role_id" gorm:"not null;index"`
	Enabled      bool       `json:"enabled" gorm:"not null;default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	Role *Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// RoleName returns the loaded role's name, or empty when Role was not preloaded.
func (u *User) RoleName() RoleName {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}
