package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string         `gorm:"uniqueIndex;not null"`
	PasswordHash  string         `gorm:"not null"`
	IsActive      bool           `gorm:"not null;default:true"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// PublicMap returns the user fields that are safe to expose in API
// responses. The password hash never leaves the store.
func (u *User) PublicMap() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt.UTC(),
		"updated_at": u.UpdatedAt.UTC(),
	}
}
