package provider

import "fmt"

// BuildPrompt assembles the single structured prompt shared by every
// provider. curationRules is passed through verbatim as part of the prompt;
// no client evaluates those rules itself.
func BuildPrompt(mood, curationRules string) string {
	prompt := fmt.Sprintf(`Recommend the top 20 movies for a user who feels: %q.
Return ONLY a JSON array of objects, each with a "title" field and a short "reason" field explaining why it fits the mood.
Example: [{"title": "The Matrix", "reason": "A mind-bending escape."}]
Do not include any text outside the JSON array.`, mood)

	if curationRules != "" {
		prompt += "\nCuration rules: " + curationRules
	}

	return prompt
}
