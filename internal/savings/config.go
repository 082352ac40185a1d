// Package savings computes the estimated annual cost-of-living and tax
// savings of moving from the New York market to Miami.
package savings

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"relocation_quiz_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

//go:embed brackets.yaml
var defaultBrackets []byte

// RetirementConfig drives the optional compounding projection.
type RetirementConfig struct {
	Enabled          bool    `yaml:"enabled"`
	RetirementAge    int     `yaml:"retirement_age"`
	AnnualReturnRate float64 `yaml:"annual_return_rate"`
}

// BracketConfig is the immutable lookup table behind every calculation.
// Build it once at startup with Load or Parse and inject it; never mutate it.
type BracketConfig struct {
	IncomeMidpoints        map[string]float64 `yaml:"income_midpoints"`
	HousingMidpoints       map[string]float64 `yaml:"housing_midpoints"`
	NYEffectiveTaxRates    map[string]float64 `yaml:"ny_effective_tax_rates"`
	AgeRepresentativeAges  map[string]int     `yaml:"age_brackets"`
	MiamiHousingMultiplier float64            `yaml:"miami_housing_multiplier"`
	UtilitiesDeltaPercent  float64            `yaml:"utilities_delta_percent"`
	UtilitiesBaseline      float64            `yaml:"utilities_baseline"`
	Retirement             RetirementConfig   `yaml:"retirement"`
}

// Load reads the bracket table from path, or the embedded defaults when path is empty.
func Load(path string) (*BracketConfig, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultBrackets)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "read bracket config", err)
	}
	return Parse(data)
}

// Default returns the embedded bracket table.
func Default() (*BracketConfig, error) {
	return Parse(defaultBrackets)
}

// Parse decodes and validates a YAML bracket table.
func Parse(data []byte) (*BracketConfig, error) {
	var cfg BracketConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "parse bracket config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every income bracket has both a midpoint and a tax
// rate, and that all values are in range.
func (c *BracketConfig) Validate() error {
	var problems []string

	if len(c.IncomeMidpoints) == 0 {
		problems = append(problems, "income_midpoints is empty")
	}
	if len(c.HousingMidpoints) == 0 {
		problems = append(problems, "housing_midpoints is empty")
	}

	for key, midpoint := range c.IncomeMidpoints {
		if midpoint <= 0 {
			problems = append(problems, fmt.Sprintf("income midpoint %q must be positive", key))
		}
		rate, ok := c.NYEffectiveTaxRates[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("ny_effective_tax_rates is missing income bracket %q", key))
			continue
		}
		if rate < 0 || rate >= 1 {
			problems = append(problems, fmt.Sprintf("tax rate for %q must be in [0,1)", key))
		}
	}
	for key := range c.NYEffectiveTaxRates {
		if _, ok := c.IncomeMidpoints[key]; !ok {
			problems = append(problems, fmt.Sprintf("income_midpoints is missing income bracket %q", key))
		}
	}
	for key, midpoint := range c.HousingMidpoints {
		if midpoint < 0 {
			problems = append(problems, fmt.Sprintf("housing midpoint %q must not be negative", key))
		}
	}
	for key, age := range c.AgeRepresentativeAges {
		if age <= 0 {
			problems = append(problems, fmt.Sprintf("age bracket %q must be positive", key))
		}
	}

	if c.MiamiHousingMultiplier < 0 {
		problems = append(problems, "miami_housing_multiplier must not be negative")
	}
	if c.UtilitiesDeltaPercent <= -1 {
		problems = append(problems, "utilities_delta_percent must be greater than -1")
	}
	if c.UtilitiesBaseline < 0 {
		problems = append(problems, "utilities_baseline must not be negative")
	}
	if c.Retirement.Enabled {
		if c.Retirement.RetirementAge <= 0 {
			problems = append(problems, "retirement.retirement_age must be positive")
		}
		if c.Retirement.AnnualReturnRate < 0 {
			problems = append(problems, "retirement.annual_return_rate must not be negative")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return apperr.Configuration("invalid bracket config: " + strings.Join(problems, "; "))
	}
	return nil
}

// IncomeBrackets returns the configured income bracket keys, sorted.
func (c *BracketConfig) IncomeBrackets() []string { return sortedKeys(c.IncomeMidpoints) }

// HousingBrackets returns the configured monthly housing cost bracket keys, sorted.
func (c *BracketConfig) HousingBrackets() []string { return sortedKeys(c.HousingMidpoints) }

// AgeBrackets returns the configured age bracket keys, sorted.
func (c *BracketConfig) AgeBrackets() []string {
	keys := make([]string, 0, len(c.AgeRepresentativeAges))
	for key := range c.AgeRepresentativeAges {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasIncomeBracket reports whether key is a configured income bracket.
func (c *BracketConfig) HasIncomeBracket(key string) bool {
	_, ok := c.IncomeMidpoints[key]
	return ok
}

// HasHousingBracket reports whether key is a configured housing bracket.
func (c *BracketConfig) HasHousingBracket(key string) bool {
	_, ok := c.HousingMidpoints[key]
	return ok
}

// HasAgeBracket reports whether key is a configured age bracket.
func (c *BracketConfig) HasAgeBracket(key string) bool {
	_, ok := c.AgeRepresentativeAges[key]
	return ok
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
