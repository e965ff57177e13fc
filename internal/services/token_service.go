package services

import (
	"errors"
	"log"
	"time"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"
	"cardiovoice-backend/pkg/security"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRetentionDays is how long revoked or expired rows are kept for
// audit before the sweep deletes them.
const DefaultRetentionDays = 30

var (
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrTokenExpired = errors.New("refresh token expired")
	ErrTokenReused  = errors.New("refresh token reused")
)

// TokenPair is what a successful login, registration or rotation hands
// back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// ClientMeta is optional audit metadata recorded on each issued token.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// TokenService owns the refresh token table: issuing, rotation with
// reuse detection, revocation and the retention sweep.
type TokenService struct {
	db *gorm.DB
}

func NewTokenService() *TokenService {
	return &TokenService{db: config.DB}
}

// IssuePair mints an access token and the first refresh token of a new
// family. Used by login and registration.
func (s *TokenService) IssuePair(user *models.User, meta ClientMeta) (*TokenPair, error) {
	raw, _, err := s.createToken(s.db, user.ID, uuid.NewString(), meta)
	if err != nil {
		return nil, err
	}
	access, err := security.CreateAccessToken(user.ID, user.Email, config.AccessTokenTTL())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		AccessTTL:    config.AccessTokenTTL(),
		RefreshTTL:   config.RefreshTokenTTL(),
	}, nil
}

func (s *TokenService) createToken(tx *gorm.DB, userID uint, familyID string, meta ClientMeta) (string, *models.RefreshToken, error) {
	raw, digest, err := security.GenerateRefreshToken()
	if err != nil {
		return "", nil, err
	}
	rec := models.RefreshToken{
		UserID:    userID,
		TokenHash: digest,
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(config.RefreshTokenTTL()),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}
	if err := tx.Create(&rec).Error; err != nil {
		// A unique-index hit on token_hash means secret generation
		// collided, which is a generation failure, not client error.
		return "", nil, err
	}
	return raw, &rec, nil
}

// Rotate exchanges a valid refresh token for a new pair in the same
// family and invalidates the old one in the same transaction.
//
// Presenting an already-revoked token is the theft signal: the whole
// family is revoked, including the legitimate successor, and the caller
// gets ErrTokenReused. A concurrent rotation race on the same token is
// indistinguishable from replay and is handled identically; the
// conditional update on the revoked flag decides the winner.
func (s *TokenService) Rotate(rawOld string, meta ClientMeta) (*TokenPair, error) {
	digest := security.DigestRefreshToken(rawOld)
	now := time.Now()

	var pair *TokenPair
	var reusedFamily string
	var reusedUser uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cur models.RefreshToken
		if err := tx.Where("token_hash = ?", digest).First(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		if cur.Revoked {
			reusedFamily, reusedUser = cur.FamilyID, cur.UserID
			return ErrTokenReused
		}
		if now.After(cur.ExpiresAt) {
			return ErrTokenExpired
		}

		var user models.User
		if err := tx.First(&user, cur.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if !user.IsActive {
			return ErrAccountDisabled
		}

		// Guarded revoke: exactly one of two racing rotations flips the
		// flag. The loser observes zero affected rows and takes the
		// reuse path.
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", cur.ID, false).
			Updates(map[string]any{"revoked": true, "revoked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			reusedFamily, reusedUser = cur.FamilyID, cur.UserID
			return ErrTokenReused
		}

		raw, _, err := s.createToken(tx, user.ID, cur.FamilyID, meta)
		if err != nil {
			return err
		}
		access, err := security.CreateAccessToken(user.ID, user.Email, config.AccessTokenTTL())
		if err != nil {
			return err
		}
		pair = &TokenPair{
			AccessToken:  access,
			RefreshToken: raw,
			AccessTTL:    config.AccessTokenTTL(),
			RefreshTTL:   config.RefreshTokenTTL(),
		}
		return nil
	})

	if errors.Is(err, ErrTokenReused) && reusedFamily != "" {
		// The cascade commits outside the rolled-back rotation attempt.
		count, revErr := s.RevokeFamily(reusedFamily)
		if revErr != nil {
			log.Printf("ALERT: family revocation failed after token reuse (user %d, family %s): %v",
				reusedUser, reusedFamily, revErr)
		} else {
			log.Printf("ALERT: refresh token reuse detected for user %d, revoked %d token(s) in family %s",
				reusedUser, count, reusedFamily)
		}
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeOne revokes the single token matching raw. Idempotent: an
// already-revoked or unknown token is a success, since the end state
// matches the caller's intent and a distinct answer would leak token
// existence.
func (s *TokenService) RevokeOne(raw string) error {
	digest := security.DigestRefreshToken(raw)
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", digest, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// RevokeFamily revokes every token in a family and returns how many
// rows were still unrevoked.
func (s *TokenService) RevokeFamily(familyID string) (int64, error) {
	now := time.Now()
	res := s.db.Model(&models.RefreshToken{}).
		Where("family_id = ? AND revoked = ?", familyID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	return res.RowsAffected, res.Error
}

// RevokeAllForUser revokes every unrevoked token the user holds across
// all families. Zero revocations is a valid outcome.
func (s *TokenService) RevokeAllForUser(userID uint) (int64, error) {
	now := time.Now()
	res := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	return res.RowsAffected, res.Error
}

// PurgeOlderThan deletes rows that are revoked or expired and were
// created before the retention window. Maintenance only, never on the
// hot path.
func (s *TokenService) PurgeOlderThan(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res := s.db.
		Where("(revoked = ? OR expires_at < ?) AND created_at < ?", true, time.Now(), cutoff).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
