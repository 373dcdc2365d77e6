// Package seed holds the default case statuses and case types a new firm starts with.
package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Entry is one seeded name with its translations.
type Entry struct {
	En string `yaml:"en"`
	Ar string `yaml:"ar"`
}

// Name returns the entry as a locale-keyed name.
func (e Entry) Name() models.LocalizedName {
	locales := map[string]string{models.LocaleEnglish: strings.TrimSpace(e.En)}
	if ar := strings.TrimSpace(e.Ar); ar != "" {
		locales[models.LocaleArabic] = ar
	}
	return models.LocalizedNames(locales)
}

// Defaults are the seeded lookup values, in creation order.
type Defaults struct {
	CaseStatuses []Entry `yaml:"case_statuses"`
	CaseTypes    []Entry `yaml:"case_types"`
}

// For returns the entries seeded for a lookup type. Clients and courts are
// firm-specific and never seeded.
func (d *Defaults) For(t models.EntityType) []Entry {
	switch t {
	case models.EntityCaseStatus:
		return d.CaseStatuses
	case models.EntityCaseType:
		return d.CaseTypes
	default:
		return nil
	}
}

// Load parses the embedded defaults.
func Load() (*Defaults, error) {
	return Parse(defaultsYAML)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse seed defaults: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Defaults) validate() error {
	for _, t := range []models.EntityType{models.EntityCaseStatus, models.EntityCaseType} {
		seen := make(map[string]bool)
		for i, e := range d.For(t) {
			key := strings.ToLower(strings.TrimSpace(e.En))
			if key == "" {
				return fmt.Errorf("seed %s #%d: en name is required", t.Label(), i+1)
			}
			if seen[key] {
				return fmt.Errorf("seed %s %q is listed twice", t.Label(), e.En)
			}
			seen[key] = true
		}
	}
	return nil
}
