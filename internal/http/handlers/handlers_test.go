package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupHandlerTestDB swaps config.DB for an in-memory sqlite database
// with clean auth and knowledge base tables.
func setupHandlerTestDB(t *testing.T) func() {
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

type envelope struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Data    map[string]any `json:"data"`
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler(resp, req)

	var env envelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	return resp, env
}

func registerUser(t *testing.T, email, password string) envelope {
	t.Helper()
	resp, env := postJSON(t, Register, "/api/v1/auth/register", map[string]string{
		"email": email, "password": password,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("registration failed with %d: %s", resp.Code, resp.Body.String())
	}
	return env
}

func refreshTokenOf(t *testing.T, env envelope) string {
	t.Helper()
	token, _ := env.Data["refresh_token"].(string)
	if token == "" {
		t.Fatal("expected a refresh token in response data")
	}
	return token
}

func accessTokenOf(t *testing.T, env envelope) string {
	t.Helper()
	token, _ := env.Data["access_token"].(string)
	if token == "" {
		t.Fatal("expected an access token in response data")
	}
	return token
}
