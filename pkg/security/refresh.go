package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
)

// refreshTokenBytes is the entropy of a raw refresh secret.
const refreshTokenBytes = 32

var ErrNoRefreshSecret = errors.New("REFRESH_TOKEN_SECRET not set")

func refreshSecret() ([]byte, error) {
	sec := os.Getenv("REFRESH_TOKEN_SECRET")
	if sec == "" {
		return nil, ErrNoRefreshSecret
	}
	return []byte(sec), nil
}

// GenerateRefreshToken mints a URL-safe refresh secret together with
// the keyed digest it is stored under. The raw value leaves the server
// exactly once, in the issue response; every later lookup goes through
// DigestRefreshToken.
func GenerateRefreshToken() (string, string, error) {
	key, err := refreshSecret()
	if err != nil {
		return "", "", err
	}
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, keyedDigest(key, raw), nil
}

// DigestRefreshToken computes the storage digest for a presented
// secret. Keyed HMAC-SHA256: a leaked token table cannot be matched
// against captured tokens without the server-side key. With no key
// configured the digest matches nothing GenerateRefreshToken produced,
// so lookups simply miss.
func DigestRefreshToken(raw string) string {
	key, _ := refreshSecret()
	return keyedDigest(key, raw)
}

func keyedDigest(key []byte, raw string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
