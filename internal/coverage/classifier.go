package coverage

import (
	"strings"

	billing "medibill-ai/internal/billing/domain"
)

// Classifier assigns coverage labels deterministically from rules.
type Classifier struct {
	keywords   []KeywordRule
	categories map[string]Label
}

// NewClassifier builds a classifier. Keywords are normalized to lower case.
func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{categories: make(map[string]Label, len(rules.Categories))}
	for _, rule := range rules.Keywords {
		normalized := KeywordRule{Label: rule.Label}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				normalized.Keywords = append(normalized.Keywords, kw)
			}
		}
		if len(normalized.Keywords) > 0 {
			c.keywords = append(c.keywords, normalized)
		}
	}
	for category, label := range rules.Categories {
		c.categories[strings.ToLower(category)] = label
	}
	return c
}

// Classify returns the coverage label for an item. The result is always a
// valid label.
func (c *Classifier) Classify(item billing.Item) Label {
	if c == nil {
		return Unknown
	}
	description := strings.ToLower(item.Description)
	for _, rule := range c.keywords {
		for _, kw := range rule.Keywords {
			if strings.Contains(description, kw) {
				return valid(rule.Label)
			}
		}
	}
	if label, ok := c.categories[strings.ToLower(string(item.Category))]; ok {
		return valid(label)
	}
	return Unknown
}

func valid(label Label) Label {
	if label.IsValid() {
		return label
	}
	return Unknown
}
