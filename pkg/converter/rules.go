package converter

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultReferenceYear is used when the rules file does not set one.
const DefaultReferenceYear = 2023

// Rules configures farm-specific conversion behavior: the reference year all
// Year offsets are expressed against, legacy account cutover rules, and
// extra system account names beyond the built-in table.
type Rules struct {
	ReferenceYear      int                `yaml:"reference_year"`
	LegacyAccountRules []LegacyRuleConfig `yaml:"legacy_account_rules"`
	SystemAccounts     map[string]string  `yaml:"system_accounts"`
}

// LegacyRuleConfig is the YAML form of a LegacyAccountRule.
type LegacyRuleConfig struct {
	Account string `yaml:"account"`
	After   string `yaml:"after"` // YYYY-MM-DD
}

// DefaultRules returns the rules used when no rules file exists.
func DefaultRules() *Rules {
	return &Rules{
		ReferenceYear: DefaultReferenceYear,
		LegacyAccountRules: []LegacyRuleConfig{
			// Account 155 was migrated off the platform mid-2022; anything
			// dated after the cutover is an artifact of that migration.
			{Account: "155", After: "2022-07-01"},
		},
	}
}

// LoadRules reads a rules file. A missing file is not an error; the defaults
// apply. A present but unparseable file is.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if rules.ReferenceYear == 0 {
		rules.ReferenceYear = DefaultReferenceYear
	}

	return &rules, nil
}

// LegacyRules parses the configured cutover rules into their runtime form.
func (r *Rules) LegacyRules() ([]LegacyAccountRule, error) {
	rules := make([]LegacyAccountRule, 0, len(r.LegacyAccountRules))
	for _, cfg := range r.LegacyAccountRules {
		after, err := time.Parse("2006-01-02", cfg.After)
		if err != nil {
			return nil, fmt.Errorf("invalid cutover date %q for account %q: %w", cfg.After, cfg.Account, err)
		}
		rules = append(rules, LegacyAccountRule{Account: cfg.Account, After: after})
	}
	return rules, nil
}
