package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"cardiovoice-backend/internal/config"
	httproutes "cardiovoice-backend/internal/http"
	"cardiovoice-backend/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(http.ListenAndServe, config.ConnectDB); err != nil {
		log.Fatal(err)
	}
}

func run(listen func(string, http.Handler) error, connectDB func()) error {
	_ = godotenv.Load(".env")

	addr, handler := buildServer(os.Getenv, connectDB, httproutes.Routes)
	startTokenSweeper()
	log.Println("Server running at http://localhost" + addr)
	return listen(addr, handler)
}

func buildServer(
	getEnv func(string) string,
	connectDB func(),
	registerRoutes func(*http.ServeMux),
) (string, http.Handler) {
	if connectDB != nil {
		connectDB()
	}

	mux := http.NewServeMux()
	if registerRoutes != nil {
		registerRoutes(mux)
	}

	return serverAddress(getEnv), httproutes.WithCORS(mux)
}

func serverAddress(getEnv func(string) string) string {
	port := strings.TrimSpace(getEnv("PORT"))
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

// startTokenSweeper runs the daily retention sweep that deletes
// refresh tokens long past revocation or expiry.
func startTokenSweeper() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			sweepStaleTokens()
		}
	}()
}

// sweepStaleTokens is one retention pass over the refresh token table.
func sweepStaleTokens() {
	count, err := services.NewTokenService().PurgeOlderThan(services.DefaultRetentionDays)
	if err != nil {
		log.Printf("token sweep failed: %v", err)
		return
	}
	log.Printf("token sweep removed %d stale refresh token(s)", count)
}
