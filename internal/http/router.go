package http

import (
	"net/http"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/http/handlers"
	"cardiovoice-backend/internal/http/middleware"

	"github.com/rs/cors"
)

func Routes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("/api/v1/auth/register", handlers.Register)
	mux.HandleFunc("/api/v1/auth/login", handlers.Login)
	mux.HandleFunc("/api/v1/auth/refresh", handlers.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", handlers.Logout)
	mux.HandleFunc("/api/v1/auth/logout-all", middleware.RequireJWT(handlers.LogoutAll))
	mux.HandleFunc("/api/v1/auth/me", middleware.RequireJWT(handlers.Me))

	// Analysis
	mux.HandleFunc("/api/v1/analyze", middleware.RequireJWT(handlers.Analyze))

	// Health
	mux.HandleFunc("/health", handlers.Health)
}

// WithCORS wraps the mux with the configured origin policy.
func WithCORS(mux *http.ServeMux) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: config.CORSCredentials(),
	})
	return c.Handler(mux)
}
