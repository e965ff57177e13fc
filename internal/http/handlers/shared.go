package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/services"
	"cardiovoice-backend/pkg/gigachat"
)

var (
	onceChat   sync.Once
	chatClient *gigachat.Client

	onceRisk sync.Once
	riskSvc  *services.RiskScoreService
)

func ensureChatClient() *gigachat.Client {
	onceChat.Do(func() {
		chatClient = gigachat.NewClient(config.GigaChatAuthKey())
	})
	return chatClient
}

func ensureRiskService() *services.RiskScoreService {
	onceRisk.Do(func() {
		riskSvc = services.NewRiskScoreService(time.Now().UnixNano())
	})
	return riskSvc
}

// clientMeta collects the audit metadata stored alongside refresh
// tokens.
func clientMeta(r *http.Request) services.ClientMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = strings.TrimSpace(ip[:i])
	}
	return services.ClientMeta{
		UserAgent: r.UserAgent(),
		IP:        ip,
	}
}

// tokenPairData is the token payload shape shared by register, login
// and refresh responses.
func tokenPairData(pair *services.TokenPair) map[string]any {
	return map[string]any{
		"access_token":             pair.AccessToken,
		"refresh_token":            pair.RefreshToken,
		"token_type":               "bearer",
		"access_token_expires_in":  int(pair.AccessTTL.Seconds()),
		"refresh_token_expires_in": int(pair.RefreshTTL.Seconds()),
	}
}
