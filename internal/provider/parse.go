package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitmnp/whattowatch/internal/models"
)

// ParseCandidates decodes a provider payload into candidates. The payload
// must be a JSON array of {title, reason} objects; a bare array of title
// strings is also accepted (reason left empty) since some models still
// answer in that older shape. Anything else, or an array with no usable
// titles, is an error so the cascade falls through instead of returning
// malformed data.
func ParseCandidates(raw string) ([]models.Candidate, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var objs []models.Candidate
	if err := json.Unmarshal([]byte(text), &objs); err != nil {
		var titles []string
		if err2 := json.Unmarshal([]byte(text), &titles); err2 != nil {
			return nil, fmt.Errorf("payload is not a JSON array of recommendations: %w", err)
		}
		for _, t := range titles {
			objs = append(objs, models.Candidate{Title: t})
		}
	}

	candidates := make([]models.Candidate, 0, len(objs))
	for _, c := range objs {
		c.Title = strings.TrimSpace(c.Title)
		c.Reason = strings.TrimSpace(c.Reason)
		if c.Title == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("payload contains no recommendations")
	}

	return candidates, nil
}

// stripFences removes a surrounding markdown code fence. Models asked for
// raw JSON still wrap it in ```json blocks often enough that rejecting the
// fence outright would waste an otherwise valid response.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
