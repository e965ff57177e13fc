package gigachat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	defaultModel   = "GigaChat"
	defaultBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"

	systemPrompt = `Ты — ассистент кардиологического сервиса. По профилю пользователя, ` +
		`оценкам риска и РАЗРЕШЕННОМУ списку нутриентов составь короткое, дружелюбное ` +
		`объяснение на русском языке. Используй ТОЛЬКО нутриенты из списка, не выдумывай ` +
		`несуществующие препараты. Это не медицинский диагноз — обязательно напомни ` +
		`о консультации с врачом.`

	mockExplanation = `На основе вашего профиля заметен повышенный уровень ` +
		`сердечно-сосудистого риска. Обратите внимание на подобранные нутриенты из базы ` +
		`знаний и обсудите их прием с врачом. Это не медицинский диагноз.`
)

// Client talks to the GigaChat completion API. Without an auth key it
// runs in mock mode and answers locally, so the analysis pipeline works
// in development and tests without network access.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authKey    string
	model      string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func NewClient(authKey string) *Client {
	baseURL := strings.TrimSpace(os.Getenv("GIGACHAT_API_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(os.Getenv("GIGACHAT_MODEL"))
	if model == "" {
		model = defaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		authKey:    strings.TrimSpace(authKey),
		model:      model,
	}
}

// MockMode reports whether the client answers locally.
func (c *Client) MockMode() bool {
	return c.authKey == ""
}

// GenerateExplanation builds the prompt from the pipeline outputs and
// asks the model for a narrative. Any failure falls back to a canned
// explanation instead of erroring: the analyze endpoint must not depend
// on this collaborator.
func (c *Client) GenerateExplanation(ctx context.Context, profile map[string]any, scores map[string]float64, supplements []map[string]any) string {
	if c.MockMode() {
		return mockExplanation
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(profile, scores, supplements)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return mockExplanation
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return mockExplanation
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.authKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return mockExplanation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return mockExplanation
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || len(decoded.Choices) == 0 {
		return mockExplanation
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return mockExplanation
	}
	return content
}

func buildPrompt(profile map[string]any, scores map[string]float64, supplements []map[string]any) string {
	var b strings.Builder

	b.WriteString("Профиль пользователя:\n")
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, profile[k])
	}

	b.WriteString("\nОценки риска:\n")
	names := make([]string, 0, len(scores))
	for k := range scores {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, "- %s: %.2f\n", k, scores[k])
	}

	if len(supplements) == 0 {
		b.WriteString("\nВ базе знаний нет подходящих средств. Напиши строго: " +
			"'К сожалению, на основе текущих данных я не могу подобрать специфические нутриенты.'\n")
		return b.String()
	}

	b.WriteString("\n--- РАЗРЕШЕННЫЙ СПИСОК НУТРИЕНТОВ ---\n")
	for _, s := range supplements {
		fmt.Fprintf(&b, "- %v: %v. (Меры предосторожности: %v)\n",
			s["name"], s["mechanism"], s["warnings"])
	}
	b.WriteString("--- КОНЕЦ СПИСКА ---\n")
	return b.String()
}
