package security

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

var (
	ErrNoBearerToken  = errors.New("missing bearer token")
	ErrNotAccessToken = errors.New("token is not an access token")
)

// AccessClaims are the identity claims carried by a signed access token.
type AccessClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func getJWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func CreateAccessToken(userID uint, email string, ttl time.Duration) (string, error) {
	secret := getJWTSecret()
	if len(secret) == 0 {
		return "", errors.New("JWT_SECRET not set")
	}
	now := time.Now()
	claims := AccessClaims{
		UserID:    userID,
		Email:     email,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccessToken validates signature, expiry and the type
// discriminator. Expiry surfaces as jwt.ErrTokenExpired so callers can
// log it apart from malformed or forged tokens.
func VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	tok, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return getJWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*AccessClaims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != accessTokenType {
		return nil, ErrNotAccessToken
	}
	return claims, nil
}

// TokenFromHeader extracts the bearer token from an Authorization
// header, without validating it.
func TokenFromHeader(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrNoBearerToken
	}
	parts := strings.Fields(auth)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoBearerToken
	}
	return parts[1], nil
}
