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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient calls the Google generative language REST API. The request
// pins the response MIME type to application/json so the model answers with
// the bare array the parser expects.
type GeminiClient struct {
	apiKey        string
	model         string
	baseURL       string
	curationRules string
	httpClient    *http.Client
	logger        zerolog.Logger
}

func NewGeminiClient(apiKey, model, curationRules string, timeout time.Duration, logger zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:        apiKey,
		model:         model,
		baseURL:       geminiBaseURL,
		curationRules: curationRules,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.With().Str("component", "provider.gemini").Logger(),
	}
}

func (c *GeminiClient) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"response_mime_type"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Recommend(ctx context.Context, mood string) ([]models.Candidate, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: BuildPrompt(mood, c.curationRules)}}},
		},
		GenerationConfig: geminiGenerationConfig{ResponseMIMEType: "application/json"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if geminiResp.Error != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("gemini API returned status %d", resp.StatusCode)}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("no response from gemini")}
	}

	candidates, err := ParseCandidates(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: err}
	}

	c.logger.Debug().Int("candidates", len(candidates)).Msg("recommendation received")
	return candidates, nil
}
