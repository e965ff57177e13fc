package handlers

import (
	"log"
	"net/http"

	"cardiovoice-backend/internal/http/middleware"
	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/internal/services"
)

// GET /api/v1/auth/me (requires auth)
func Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		response.WriteErr(w, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return
	}

	user, err := services.NewAuthService().GetUserByID(identity.UserID)
	if err != nil {
		log.Printf("error loading user %d: %v", identity.UserID, err)
		response.WriteErr(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
		return
	}
	if user == nil {
		response.WriteErr(w, http.StatusNotFound, "User not found", "USER_NOT_FOUND")
		return
	}

	response.WriteData(w, http.StatusOK, "", user.PublicMap())
}
