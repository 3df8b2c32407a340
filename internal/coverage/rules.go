package coverage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	billing "medibill-ai/internal/billing/domain"
)

// ErrInvalidLabel indicates a rule file names an unknown label.
var ErrInvalidLabel = errors.New("coverage: invalid label")

// KeywordRule maps description keywords to a label.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Label    Label    `yaml:"label"`
}

// Rules is the rule set used by the classifier. Keyword rules are checked in
// order before the category table.
type Rules struct {
	Keywords   []KeywordRule    `yaml:"keywords"`
	Categories map[string]Label `yaml:"categories"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		Keywords: []KeywordRule{
			{Keywords: []string{"cosmetic"}, Label: NotCovered},
			{Keywords: []string{"consumable", "toiletries"}, Label: NotCovered},
			{Keywords: []string{"private room", "deluxe"}, Label: PartiallyCovered},
		},
		Categories: map[string]Label{
			string(billing.CategoryMedicine):  LikelyCovered,
			string(billing.CategoryTest):      LikelyCovered,
			string(billing.CategoryProcedure): LikelyCovered,
			string(billing.CategoryRoom):      PartiallyCovered,
			string(billing.CategoryOther):     Unknown,
		},
	}
}

// LoadRules reads a YAML rule file and merges it over the defaults. An empty
// path returns the defaults. File keyword rules are checked before the
// built-in ones; file categories replace the matching defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, err
	}
	return mergeRules(rules, data)
}

func mergeRules(base Rules, data []byte) (Rules, error) {
	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("coverage: parse rules: %w", err)
	}
	for _, rule := range override.Keywords {
		if !rule.Label.IsValid() {
			return base, fmt.Errorf("%w: %q", ErrInvalidLabel, rule.Label)
		}
	}
	for category, label := range override.Categories {
		if !label.IsValid() {
			return base, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
		}
		base.Categories[strings.ToLower(strings.TrimSpace(category))] = label
	}
	if len(override.Keywords) > 0 {
		base.Keywords = append(append([]KeywordRule{}, override.Keywords...), base.Keywords...)
	}
	return base, nil
}
