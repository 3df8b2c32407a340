package application

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	explain "medibill-ai/internal/explain/domain"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type explanationPayload struct {
	Explanation     string `json:"explanation"`
	InsuranceStatus string `json:"insurance_status"`
	InsuranceNote   string `json:"insurance_note"`
	Disclaimer      string `json:"disclaimer"`
}

// parseExplanation extracts the JSON object from a model reply. Replies are
// often wrapped in markdown fences or prose.
func parseExplanation(text string) (explanationPayload, error) {
	raw := jsonObjectPattern.FindString(text)
	if raw == "" {
		raw = strings.TrimSpace(text)
	}
	var payload explanationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return explanationPayload{}, fmt.Errorf("%w: %v", explain.ErrParse, err)
	}
	payload.Explanation = strings.TrimSpace(payload.Explanation)
	if payload.Explanation == "" {
		return explanationPayload{}, fmt.Errorf("%w: empty explanation", explain.ErrParse)
	}
	payload.InsuranceStatus = strings.ToLower(strings.TrimSpace(payload.InsuranceStatus))
	payload.InsuranceNote = strings.TrimSpace(payload.InsuranceNote)
	payload.Disclaimer = strings.TrimSpace(payload.Disclaimer)
	return payload, nil
}

func parseVisual(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty visual description", explain.ErrParse)
	}
	return text, nil
}
