package application

import (
	"fmt"
	"strings"

	billing "medibill-ai/internal/billing/domain"
	explain "medibill-ai/internal/explain/domain"
)

const explanationContract = `Return strict JSON:
{
  "explanation": "...",
  "insurance_status": "LIKELY_COVERED|PARTIALLY_COVERED|NOT_COVERED",
  "insurance_note": "...",
  "disclaimer": "..."
}`

func modeInstruction(mode explain.AudienceMode) string {
	if mode == explain.ModeClinical {
		return "Audience: a clinically literate reader. Use precise medical terminology and mention the usual indication."
	}
	return "Audience: the patient's family with no medical background. Use short, warm sentences and avoid jargon."
}

func languageInstruction(lang explain.Language) string {
	instruction := fmt.Sprintf("Language: %s.", lang)
	if script := lang.Script(); script != "" {
		instruction += fmt.Sprintf(" (%s script).", script)
	}
	return instruction
}

func formatAmount(item billing.Item) string {
	return strings.TrimSpace(item.Amount.StringFixed(2) + " " + item.Currency)
}

// BuildExplanationPrompt renders the prompt for a plain-language explanation.
func BuildExplanationPrompt(item billing.Item, mode explain.AudienceMode, lang explain.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are MediBill AI. %s\n", languageInstruction(lang))
	b.WriteString(modeInstruction(mode))
	b.WriteString("\nExplain this hospital bill item in simple terms and classify insurance coverage.\n")
	fmt.Fprintf(&b, "Item: %s\n", item.Description)
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	fmt.Fprintf(&b, "Cost: %s\n\n", formatAmount(item))
	b.WriteString(explanationContract)
	return b.String()
}

// BuildVisualPrompt renders the prompt for an educational illustration
// description.
func BuildVisualPrompt(item billing.Item, lang explain.Language) string {
	var b strings.Builder
	b.WriteString("Educational illustration description.\n")
	fmt.Fprintf(&b, "Item: %s\n", item.Description)
	fmt.Fprintf(&b, "Category: %s\n", item.Category)
	b.WriteString("Flat medical illustration, clean environment, no patients, no blood.\n")
	b.WriteString(languageInstruction(lang))
	return b.String()
}
