// Package deepseek — клиент DeepSeek chat-completions API для
// генерации планов питания.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/igorsavinkin/ai-diet-planner/internal/model"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	chatPath       = "/chat/completions"
	chatModel      = "deepseek-chat"
	maxTokens      = 2000
	temperature    = 0.7

	systemPrompt = "You are a nutritionist expert specializing in creating practical meal plans."
)

// Cause классифицирует сбой провайдера. Сырые транспортные ошибки
// наружу не отдаются.
type Cause string

const (
	CauseTimeout   Cause = "timeout"
	CauseQuota     Cause = "quota_exceeded"
	CauseMalformed Cause = "malformed_response"
	CauseTransport Cause = "transport"
)

// ProviderError — ошибка генеративного провайдера с причиной.
// Автоматических повторов нет: повтор — это новый запрос пользователя.
type ProviderError struct {
	Cause Cause
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("provider error (%s)", e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client обращается к DeepSeek. Единственная операция ядра, которой
// позволено блокироваться на секунды — поэтому каждый вызов идёт под
// собственным таймаутом.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient создаёт клиент. Пустой apiKey допустим: генерация будет
// недоступна, о чём сообщает Available.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			// Таймаут управляется контекстом на каждый запрос
		},
	}
}

// Available сообщает, настроен ли ключ API.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateWeeklyMenu генерирует недельное меню по завершённому профилю.
func (c *Client) GenerateWeeklyMenu(ctx context.Context, profile *model.UserProfile) (string, error) {
	return c.generate(ctx, BuildWeeklyMenuPrompt(profile), profile)
}

// GenerateDiet генерирует краткие рекомендации по питанию на день.
func (c *Client) GenerateDiet(ctx context.Context, profile *model.UserProfile) (string, error) {
	return c.generate(ctx, BuildDietPrompt(profile), profile)
}

func (c *Client) generate(ctx context.Context, prompt string, profile *model.UserProfile) (string, error) {
	if !c.Available() {
		return "", &ProviderError{Cause: CauseTransport, Err: errors.New("api key is not configured")}
	}
	if profile == nil || !profile.Completed {
		return "", errors.New("profile is not finalized")
	}
	return c.chat(ctx, prompt)
}

func (c *Client) chat(ctx context.Context, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &ProviderError{Cause: CauseTimeout, Err: err}
		}
		return "", &ProviderError{Cause: CauseTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Cause: CauseTransport, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired:
		return "", &ProviderError{Cause: CauseQuota, Err: fmt.Errorf("status %d: %s", resp.StatusCode, raw)}
	case resp.StatusCode != http.StatusOK:
		return "", &ProviderError{Cause: CauseTransport, Err: fmt.Errorf("status %d: %s", resp.StatusCode, raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProviderError{Cause: CauseMalformed, Err: err}
	}
	// Иногда провайдер отвечает 200 с ошибкой в теле
	if parsed.Error.Message != "" {
		return "", &ProviderError{Cause: CauseMalformed, Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ProviderError{Cause: CauseMalformed, Err: errors.New("empty completion")}
	}

	return parsed.Choices[0].Message.Content, nil
}
