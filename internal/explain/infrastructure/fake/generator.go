// Package fake provides an offline generator for demos.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Generator answers prompts with canned, deterministic text.
type Generator struct{}

// New returns an offline generator.
func New() *Generator {
	return &Generator{}
}

type payload struct {
	Explanation     string `json:"explanation"`
	InsuranceStatus string `json:"insurance_status"`
	InsuranceNote   string `json:"insurance_note"`
	Disclaimer      string `json:"disclaimer"`
}

// Generate implements the explanation generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	item := field(prompt, "Item:")
	category := field(prompt, "Category:")
	if strings.HasPrefix(prompt, "Educational illustration description.") {
		return fmt.Sprintf("A flat, clean illustration of %s used for %s care, shown on a plain background.", item, category), nil
	}
	body, err := json.Marshal(payload{
		Explanation:     fmt.Sprintf("%s is a %s charge on this bill. It covers what the hospital provided during the stay.", item, category),
		InsuranceStatus: "UNKNOWN",
		InsuranceNote:   "Offline demo answer. Confirm coverage with your insurer.",
		Disclaimer:      "Educational tool only. Not medical or financial advice.",
	})
	if err != nil {
		return "", err
	}
	return "```json\n" + string(body) + "\n```", nil
}

func field(prompt, prefix string) string {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return "this item"
}
