package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/internal/services"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/v1/auth/refresh
//
// Exchanges a valid refresh token for a rotated pair. Every token
// failure looks the same from the outside; reuse detection in
// particular must not be distinguishable from a plain invalid token.
func Refresh(w http.ResponseWriter, r *http.Request) {
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

	pair, err := services.NewTokenService().Rotate(in.RefreshToken, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken),
			errors.Is(err, services.ErrTokenExpired),
			errors.Is(err, services.ErrTokenReused),
			errors.Is(err, services.ErrAccountDisabled):
			response.WriteErr(w, http.StatusUnauthorized, "invalid or expired refresh token", "REFRESH_FAILED")
		default:
			log.Printf("token refresh error: %v", err)
			response.WriteErr(w, http.StatusInternalServerError, "Token refresh failed", "INTERNAL_ERROR")
		}
		return
	}

	response.WriteData(w, http.StatusOK, "Token refreshed successfully", tokenPairData(pair))
}
