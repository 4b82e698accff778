package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/types"
)

// Typed failure categories for the AI collaborator. Business code branches
// on these; the raw status/string matching stays inside this adapter.
var (
	ErrAIMissingCredentials = errors.New("ai credentials missing or rejected")
	ErrAIQuotaExceeded      = errors.New("ai quota or rate limit exceeded")
	ErrAIUnavailable        = errors.New("ai service unavailable")
)

type AIClient interface {
	Generate(ctx context.Context, message string, history []*types.ChatMessage, language string) (string, error)
}

type geminiClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewAIClient(log *logger.Logger) AIClient {
	clientLog := log.With("service", "AIClient")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		clientLog.Warn("GEMINI_API_KEY not set; chat generation will fail with a credentials error")
	}
	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	// generous timeout: the downstream model can cold-start slowly
	timeoutSec := 120
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &geminiClient{
		log:        clientLog,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func systemPrompt(language string) string {
	if language == "en" {
		return "You are a shopping assistant for a consumer electronics store. Answer concisely and only about products, prices, and store policies. Reply in English."
	}
	return "Bạn là trợ lý mua sắm của một cửa hàng điện tử. Trả lời ngắn gọn, chỉ về sản phẩm, giá và chính sách cửa hàng. Trả lời bằng tiếng Việt."
}

func (c *geminiClient) Generate(ctx context.Context, message string, history []*types.ChatMessage, language string) (string, error) {
	if c.apiKey == "" {
		return "", ErrAIMissingCredentials
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == types.ChatRoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt(language)}}},
		Contents:          contents,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("AI request failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAIUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("AI request returned non-200", "status", resp.StatusCode, "body", string(raw))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", ErrAIMissingCredentials
		case http.StatusTooManyRequests:
			return "", ErrAIQuotaExceeded
		default:
			return "", fmt.Errorf("%w: http %d", ErrAIUnavailable, resp.StatusCode)
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAIUnavailable, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrAIUnavailable)
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrAIUnavailable)
	}
	return text, nil
}
