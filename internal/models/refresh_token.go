package models

import (
	"time"
)

// RefreshToken is one issued refresh secret. Only the keyed digest of
// the secret is stored; the raw value is returned to the client exactly
// once at issue time. FamilyID groups every token descended from one
// login through successive rotations.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	FamilyID  string    `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	RevokedAt *time.Time
	CreatedAt time.Time
	UserAgent string
	IP        string
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token can still be rotated: not revoked
// and not expired. The owning user's active flag is checked separately
// because it lives on another row.
func (t *RefreshToken) IsValid() bool {
	return !t.Revoked && !t.IsExpired()
}
