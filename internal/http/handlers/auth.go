package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/internal/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/register
func Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	var in credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.WriteErr(w, http.StatusBadRequest, "Request body is required", "INVALID_REQUEST")
		return
	}

	auth := services.NewAuthService()
	user, err := auth.Register(in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, services.ErrWeakPassword):
			response.WriteErr(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		case errors.Is(err, services.ErrEmailTaken):
			response.WriteErr(w, http.StatusBadRequest, err.Error(), "REGISTRATION_FAILED")
		default:
			log.Printf("registration error: %v", err)
			response.WriteErr(w, http.StatusInternalServerError, "Registration failed", "INTERNAL_ERROR")
		}
		return
	}

	pair, err := services.NewTokenService().IssuePair(user, clientMeta(r))
	if err != nil {
		log.Printf("token issue error after registration: %v", err)
		response.WriteErr(w, http.StatusInternalServerError, "Registration failed", "INTERNAL_ERROR")
		return
	}

	data := tokenPairData(pair)
	data["user"] = user.PublicMap()
	response.WriteData(w, http.StatusCreated, "Registration successful", data)
}

// POST /api/v1/auth/login
func Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	var in credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.WriteErr(w, http.StatusBadRequest, "Request body is required", "INVALID_REQUEST")
		return
	}
	if in.Email == "" || in.Password == "" {
		response.WriteErr(w, http.StatusBadRequest, "email and password are required", "VALIDATION_ERROR")
		return
	}

	auth := services.NewAuthService()
	user, err := auth.Authenticate(in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrAccountDisabled):
			// One external message for every authentication failure;
			// the service already logged the real cause.
			response.WriteErr(w, http.StatusUnauthorized, "invalid email or password", "AUTH_FAILED")
		default:
			log.Printf("login error: %v", err)
			response.WriteErr(w, http.StatusInternalServerError, "Login failed", "INTERNAL_ERROR")
		}
		return
	}

	pair, err := services.NewTokenService().IssuePair(user, clientMeta(r))
	if err != nil {
		log.Printf("token issue error after login: %v", err)
		response.WriteErr(w, http.StatusInternalServerError, "Login failed", "INTERNAL_ERROR")
		return
	}

	data := tokenPairData(pair)
	data["user"] = user.PublicMap()
	response.WriteData(w, http.StatusOK, "Login successful", data)
}
