package handlers

import (
	"net/http"

	"cardiovoice-backend/internal/response"
)

const apiVersion = "1.0.0"

// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	mode := "real"
	if ensureChatClient().MockMode() {
		mode = "mock"
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"mode":    mode,
		"version": apiVersion,
	})
}
