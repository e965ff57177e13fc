package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"cardiovoice-backend/internal/http/middleware"
	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/internal/services"
)

// POST /api/v1/auth/logout
//
// Revokes the presented refresh token. Idempotent: revoking an
// already-revoked or unknown token still answers success, so repeated
// logouts behave and token existence is not leaked.
func Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	var in refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.RefreshToken == "" {
		response.WriteErr(w, http.StatusBadRequest, "refresh_token is required", "INVALID_REQUEST")
		return
	}

	if err := services.NewTokenService().RevokeOne(in.RefreshToken); err != nil {
		log.Printf("logout error: %v", err)
		response.WriteErr(w, http.StatusInternalServerError, "Logout failed", "INTERNAL_ERROR")
		return
	}

	response.WriteData(w, http.StatusOK, "Logged out successfully", nil)
}

// POST /api/v1/auth/logout-all (requires auth)
//
// Revokes every unrevoked refresh token of the authenticated user
// across all families and reports the count.
func LogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		response.WriteErr(w, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return
	}

	count, err := services.NewTokenService().RevokeAllForUser(identity.UserID)
	if err != nil {
		log.Printf("logout-all error for user %d: %v", identity.UserID, err)
		response.WriteErr(w, http.StatusInternalServerError, "Logout failed", "INTERNAL_ERROR")
		return
	}

	response.WriteData(w, http.StatusOK, "Logged out from all devices",
		map[string]any{"revoked_tokens": count})
}
