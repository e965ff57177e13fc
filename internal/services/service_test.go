package services

import (
	"testing"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceTestDB swaps config.DB for an in-memory sqlite database
// and wipes the auth tables so each test starts clean.
func setupServiceTestDB(t *testing.T) func() {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-jwt-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "test-refresh-secret")

	originalDB := config.DB

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Condition{}, &models.Supplement{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}
	db.Exec("DELETE FROM refresh_tokens")
	db.Exec("DELETE FROM supplements")
	db.Exec("DELETE FROM conditions")
	db.Exec("DELETE FROM users")

	config.DB = db

	return func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
		config.DB = originalDB
	}
}

func seedActiveUser(t *testing.T, email string) *models.User {
	t.Helper()
	svc := NewAuthService()
	user, err := svc.Register(email, "SecurePass123")
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}
