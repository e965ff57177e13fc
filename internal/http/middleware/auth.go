package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/pkg/security"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated caller attached to the request context
// by RequireJWT. Handlers read it with IdentityFrom.
type Identity struct {
	UserID uint
	Email  string
}

// RequireJWT verifies the bearer access token and passes the resulting
// identity down through the request context. It is the sole gate before
// any handler treats a request as authenticated.
func RequireJWT(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := security.TokenFromHeader(r)
		if err != nil {
			response.WriteErr(w, http.StatusUnauthorized,
				"Authentication required. Please provide a valid token.", "AUTH_REQUIRED")
			return
		}

		claims, err := security.VerifyAccessToken(tokenStr)
		if err != nil {
			// Expired and forged tokens get the same answer but
			// distinct logs.
			if errors.Is(err, jwt.ErrTokenExpired) {
				log.Printf("access token expired")
			} else {
				log.Printf("invalid access token: %v", err)
			}
			response.WriteErr(w, http.StatusUnauthorized,
				"Invalid or expired token. Please login again.", "INVALID_TOKEN")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, &Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// IdentityFrom returns the authenticated identity, or nil when the
// request did not pass through RequireJWT.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
