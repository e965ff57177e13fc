package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings are read from the environment on every call so tests can
// override them with t.Setenv. cmd/server loads .env before anything
// else asks for a value.

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntOr(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func ServerAddress() string {
	return ":" + envOr("PORT", "8080")
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// AccessTokenTTL is the lifetime of signed access tokens.
func AccessTokenTTL() time.Duration {
	return time.Duration(envIntOr("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute
}

// RefreshTokenTTL is the lifetime of refresh secrets.
func RefreshTokenTTL() time.Duration {
	return time.Duration(envIntOr("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour
}

func MaxUploadBytes() int64 {
	return int64(envIntOr("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024
}

func UploadDir() string {
	return envOr("UPLOAD_DIR", "temp_uploads")
}

func AllowedOrigins() []string {
	raw := envOr("ALLOWED_ORIGINS",
		"http://localhost:3000,http://localhost:5173,http://localhost:5174")
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func CORSCredentials() bool {
	return envOr("CORS_CREDENTIALS", "false") == "true"
}

func GigaChatAuthKey() string {
	return strings.TrimSpace(os.Getenv("GIGACHAT_AUTH_KEY"))
}
