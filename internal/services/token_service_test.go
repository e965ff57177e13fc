package services

import (
	"errors"
	"testing"
	"time"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"
	"cardiovoice-backend/pkg/security"

	"gorm.io/gorm"
)

func countUnrevokedInFamily(t *testing.T, familyID string) int64 {
	t.Helper()
	var n int64
	if err := config.DB.Model(&models.RefreshToken{}).
		Where("family_id = ? AND revoked = ?", familyID, false).
		Count(&n).Error; err != nil {
		t.Fatalf("count unrevoked: %v", err)
	}
	return n
}

func familyOf(t *testing.T, raw string) string {
	t.Helper()
	var rec models.RefreshToken
	digest := security.DigestRefreshToken(raw)
	if err := config.DB.Where("token_hash = ?", digest).First(&rec).Error; err != nil {
		t.Fatalf("token record should exist: %v", err)
	}
	return rec.FamilyID
}

func TestIssuePair_NewFamily(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "issue@example.com")
	svc := NewTokenService()

	pair, err := svc.IssuePair(user, ClientMeta{UserAgent: "test-agent", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.AccessTTL != 15*time.Minute {
		t.Errorf("expected access TTL 15m, got %v", pair.AccessTTL)
	}
	if pair.RefreshTTL != 7*24*time.Hour {
		t.Errorf("expected refresh TTL 7d, got %v", pair.RefreshTTL)
	}

	var rec models.RefreshToken
	digest := security.DigestRefreshToken(pair.RefreshToken)
	if err := config.DB.Where("token_hash = ?", digest).First(&rec).Error; err != nil {
		t.Fatalf("refresh token row should exist: %v", err)
	}
	if rec.FamilyID == "" {
		t.Error("expected a family id to be assigned")
	}
	if rec.UserAgent != "test-agent" || rec.IP != "10.0.0.1" {
		t.Errorf("client metadata not stored: %+v", rec)
	}

	// Two issuances never share a family.
	second, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("second IssuePair failed: %v", err)
	}
	if familyOf(t, second.RefreshToken) == rec.FamilyID {
		t.Error("expected a fresh family per login")
	}
}

func TestRawSecretNeverStored(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "hash@example.com")
	pair, err := NewTokenService().IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	// Looking up the plaintext as if it were a digest must never match.
	var n int64
	config.DB.Model(&models.RefreshToken{}).
		Where("token_hash = ?", pair.RefreshToken).Count(&n)
	if n != 0 {
		t.Fatal("raw refresh secret must not appear in storage")
	}
}

func TestDigestsNeverCollide(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "collide@example.com")
	svc := NewTokenService()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pair, err := svc.IssuePair(user, ClientMeta{})
		if err != nil {
			t.Fatalf("IssuePair failed: %v", err)
		}
		digest := security.DigestRefreshToken(pair.RefreshToken)
		if seen[digest] {
			t.Fatal("digest collision across issuances")
		}
		seen[digest] = true
	}
}

func TestRotate_SucceedsOnceThenCascades(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "rotate@example.com")
	svc := NewTokenService()

	pair, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	family := familyOf(t, pair.RefreshToken)

	rotated, err := svc.Rotate(pair.RefreshToken, ClientMeta{})
	if err != nil {
		t.Fatalf("first rotation should succeed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must return a different refresh token")
	}
	if familyOf(t, rotated.RefreshToken) != family {
		t.Fatal("rotation must stay in the same family")
	}
	if got := countUnrevokedInFamily(t, family); got != 1 {
		t.Fatalf("expected exactly 1 unrevoked token in family, got %d", got)
	}

	// Replay of the stale token is the theft signal: family-wide
	// cascade, including the successor minted above.
	if _, err := svc.Rotate(pair.RefreshToken, ClientMeta{}); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused, got %v", err)
	}
	if got := countUnrevokedInFamily(t, family); got != 0 {
		t.Fatalf("expected zero unrevoked tokens after cascade, got %d", got)
	}

	// The successor from the legitimate rotation is now unusable too.
	if _, err := svc.Rotate(rotated.RefreshToken, ClientMeta{}); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected successor to be dead after cascade, got %v", err)
	}
}

func TestRotate_LosingConcurrentRotation(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "race@example.com")
	svc := NewTokenService()

	pair, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}
	family := familyOf(t, pair.RefreshToken)
	digest := security.DigestRefreshToken(pair.RefreshToken)

	// Simulates a competing rotation of the same token committing
	// between this call's row lookup and its guarded revoke: right after
	// the lookup returns the row unrevoked, flip it on the same
	// connection. The guarded update then matches zero rows and the call
	// must take the reuse path instead of double-rotating.
	fired := false
	err = config.DB.Callback().Query().After("gorm:query").
		Register("competing_rotation", func(db *gorm.DB) {
			if fired || db.Statement.Table != "refresh_tokens" {
				return
			}
			fired = true
			db.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE refresh_tokens SET revoked = ?, revoked_at = ? WHERE token_hash = ?",
					true, time.Now(), digest)
		})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer config.DB.Callback().Query().Remove("competing_rotation")

	if _, err := svc.Rotate(pair.RefreshToken, ClientMeta{}); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused from the losing rotation, got %v", err)
	}
	if !fired {
		t.Fatal("competing revocation never ran")
	}

	// The loser triggers the family cascade like any replay.
	if got := countUnrevokedInFamily(t, family); got != 0 {
		t.Fatalf("expected a fully revoked family, got %d unrevoked", got)
	}

	// Its rolled-back transaction must not have persisted a successor.
	var total int64
	if err := config.DB.Model(&models.RefreshToken{}).
		Where("family_id = ?", family).Count(&total).Error; err != nil {
		t.Fatalf("count family rows: %v", err)
	}
	if total != 1 {
		t.Fatalf("losing rotation must not persist a successor, family has %d rows", total)
	}
}

func TestRotate_UnknownToken(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	if _, err := NewTokenService().Rotate("not-a-real-token", ClientMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRotate_ExpiredToken(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "expired@example.com")
	svc := NewTokenService()
	pair, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	digest := security.DigestRefreshToken(pair.RefreshToken)
	past := time.Now().Add(-time.Hour)
	if err := config.DB.Model(&models.RefreshToken{}).
		Where("token_hash = ?", digest).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("failed to backdate token: %v", err)
	}

	if _, err := svc.Rotate(pair.RefreshToken, ClientMeta{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRotate_DisabledUser(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "disabled-rotate@example.com")
	svc := NewTokenService()
	pair, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if err := config.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to disable user: %v", err)
	}

	if _, err := svc.Rotate(pair.RefreshToken, ClientMeta{}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRevokeOne_Idempotent(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "logout@example.com")
	svc := NewTokenService()
	pair, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if err := svc.RevokeOne(pair.RefreshToken); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}

	digest := security.DigestRefreshToken(pair.RefreshToken)
	var rec models.RefreshToken
	if err := config.DB.Where("token_hash = ?", digest).First(&rec).Error; err != nil {
		t.Fatalf("token should still exist: %v", err)
	}
	if !rec.Revoked || rec.RevokedAt == nil {
		t.Fatal("token should be revoked with a timestamp")
	}
	firstRevokedAt := *rec.RevokedAt

	// Second call succeeds and changes nothing.
	if err := svc.RevokeOne(pair.RefreshToken); err != nil {
		t.Fatalf("second revoke should succeed: %v", err)
	}
	if err := config.DB.Where("token_hash = ?", digest).First(&rec).Error; err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if !rec.RevokedAt.Equal(firstRevokedAt) {
		t.Error("revoked_at must not change on repeat logout")
	}

	// Unknown tokens are also a success.
	if err := svc.RevokeOne("never-issued"); err != nil {
		t.Fatalf("revoking an unknown token should not error: %v", err)
	}
}

func TestRevokeAllForUser_CountsAndKills(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "logout-all@example.com")
	other := seedActiveUser(t, "bystander@example.com")
	svc := NewTokenService()

	var raws []string
	for i := 0; i < 3; i++ {
		pair, err := svc.IssuePair(user, ClientMeta{})
		if err != nil {
			t.Fatalf("IssuePair failed: %v", err)
		}
		raws = append(raws, pair.RefreshToken)
	}
	otherPair, err := svc.IssuePair(other, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair for bystander failed: %v", err)
	}

	count, err := svc.RevokeAllForUser(user.ID)
	if err != nil {
		t.Fatalf("RevokeAllForUser failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revocations, got %d", count)
	}

	for _, raw := range raws {
		if _, err := svc.Rotate(raw, ClientMeta{}); err == nil {
			t.Fatal("rotation with a revoked token must fail")
		}
	}

	// Another user's session is untouched.
	if _, err := svc.Rotate(otherPair.RefreshToken, ClientMeta{}); err != nil {
		t.Fatalf("bystander rotation should still work: %v", err)
	}

	// Second pass finds nothing left to revoke for the user's original
	// tokens (the cascades above revoked their families already).
	count, err = svc.RevokeAllForUser(user.ID)
	if err != nil {
		t.Fatalf("second RevokeAllForUser failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 revocations on second pass, got %d", count)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	user := seedActiveUser(t, "purge@example.com")
	svc := NewTokenService()

	fresh, err := svc.IssuePair(user, ClientMeta{})
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	old := time.Now().AddDate(0, 0, -40)
	now := time.Now()
	stale := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: "stale-digest",
		FamilyID:  "stale-family",
		ExpiresAt: old.Add(7 * 24 * time.Hour),
		Revoked:   true,
		RevokedAt: &now,
		CreatedAt: old,
	}
	if err := config.DB.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed stale token: %v", err)
	}

	count, err := svc.PurgeOlderThan(DefaultRetentionDays)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 purged row, got %d", count)
	}

	var n int64
	config.DB.Model(&models.RefreshToken{}).Where("token_hash = ?", "stale-digest").Count(&n)
	if n != 0 {
		t.Error("stale token should be gone")
	}

	// The live token survives the sweep and still rotates.
	if _, err := svc.Rotate(fresh.RefreshToken, ClientMeta{}); err != nil {
		t.Fatalf("fresh token should survive purge: %v", err)
	}
}
