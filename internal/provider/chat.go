package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/models"
)

const (
	openAIAPIURL     = "https://api.openai.com/v1/chat/completions"
	openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"
)

// ChatClient speaks the OpenAI chat-completions wire format, which
// OpenRouter also implements. One implementation covers both cascade tiers.
type ChatClient struct {
	name          string
	apiKey        string
	model         string
	apiURL        string
	curationRules string
	httpClient    *http.Client
	logger        zerolog.Logger
}

func NewOpenAIClient(apiKey, model, curationRules string, timeout time.Duration, logger zerolog.Logger) *ChatClient {
	return newChatClient("openai", openAIAPIURL, apiKey, model, curationRules, timeout, logger)
}

func NewOpenRouterClient(apiKey, model, curationRules string, timeout time.Duration, logger zerolog.Logger) *ChatClient {
	return newChatClient("openrouter", openRouterAPIURL, apiKey, model, curationRules, timeout, logger)
}

func newChatClient(name, apiURL, apiKey, model, curationRules string, timeout time.Duration, logger zerolog.Logger) *ChatClient {
	return &ChatClient{
		name:          name,
		apiKey:        apiKey,
		model:         model,
		apiURL:        apiURL,
		curationRules: curationRules,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.With().Str("component", "provider."+name).Logger(),
	}
}

func (c *ChatClient) Name() string { return c.name }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
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
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *ChatClient) Recommend(ctx context.Context, mood string) ([]models.Candidate, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(mood, c.curationRules)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if chatResp.Error != nil {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("%s API error: %s", c.name, chatResp.Error.Message)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("%s API returned status %d", c.name, resp.StatusCode)}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{Provider: c.name, Err: fmt.Errorf("no response from %s", c.name)}
	}

	candidates, err := ParseCandidates(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: err}
	}

	c.logger.Debug().Int("candidates", len(candidates)).Msg("recommendation received")
	return candidates, nil
}
