package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/http/middleware"
	"cardiovoice-backend/internal/response"
	"cardiovoice-backend/internal/services"
)

// POST /api/v1/analyze (requires auth)
//
// Multipart form: profile fields plus an "audio" file. The pipeline is
// risk scoring → knowledge base retrieval → explanation generation;
// only the scoring inputs are validated here, the collaborators degrade
// gracefully on their own.
func Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteErr(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		return
	}

	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		response.WriteErr(w, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED")
		return
	}
	log.Printf("analysis requested by user: %s", identity.Email)

	maxBytes := config.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		response.WriteErr(w, http.StatusBadRequest, "multipart form required", "INVALID_REQUEST")
		return
	}

	// 1. Validate profile data
	profile, err := profileFromForm(r.MultipartForm.Value)
	if err != nil {
		response.WriteErr(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// 2. Validate and save the audio file
	file, header, err := r.FormFile("audio")
	if err != nil {
		response.WriteErr(w, http.StatusBadRequest, "Audio file missing", "AUDIO_MISSING")
		return
	}
	defer file.Close()

	filePath, err := saveUploadSecurely(file, header, config.UploadDir(), maxBytes)
	if err != nil {
		response.WriteErr(w, http.StatusBadRequest, err.Error(), "FILE_VALIDATION_ERROR")
		return
	}
	defer func() {
		if err := os.Remove(filePath); err != nil {
			log.Printf("cleanup failed for %s: %v", filePath, err)
		}
	}()

	// 3. Risk scoring
	scores, query := ensureRiskService().Scores(profile)

	// 4. Knowledge base retrieval
	supplements, err := services.NewKnowledgeBaseService().FindRelevantSupplements(query)
	if err != nil {
		log.Printf("knowledge base retrieval error: %v", err)
		response.WriteErr(w, http.StatusInternalServerError, "Internal Server Error", "INTERNAL_ERROR")
		return
	}

	// 5. Explanation generation (falls back to canned text on failure)
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	explanation := ensureChatClient().GenerateExplanation(ctx, map[string]any{
		"age":            profile.Age,
		"gender":         profile.Gender,
		"smoking_status": profile.SmokingStatus,
		"activity_level": profile.ActivityLevel,
	}, scores, supplements)

	response.WriteData(w, http.StatusOK, "", map[string]any{
		"risk_scores":    scores,
		"supplements":    supplements,
		"ai_explanation": explanation,
	})
}
