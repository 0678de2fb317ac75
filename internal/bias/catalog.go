package bias

import (
	"fmt"
	"os"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// requiredCategories are the coverage areas the catalogue must provide
// before the scanner is allowed to start.
var requiredCategories = []string{
	"age",
	"gender",
	"education_elitism",
	"culture_fit",
	"disability",
	"racial_proxy",
	"nationality",
	"socioeconomic",
}

// Category describes one bias category: its trigger phrases, risk level,
// legal basis and the default suggested rewrite. Categories are immutable
// after load.
type Category struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Severity Severity `yaml:"severity" json:"severity"`
	Legal    string   `yaml:"legal" json:"legal"`
	Rewrite  string   `yaml:"rewrite" json:"rewrite"`
	Triggers []string `yaml:"triggers" json:"triggers"`
}

// Catalog is the ordered, read-only set of bias categories. Load it once
// at process start; use LoadCatalogFile for an explicit reload.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// ConfigError reports a malformed catalogue. It is fatal at startup.
type ConfigError struct {
	Category string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("bias catalog: %s", e.Reason)
	}
	return fmt.Sprintf("bias catalog: category %q: %s", e.Category, e.Reason)
}

// LoadCatalog parses and validates the built-in catalogue.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(builtinCatalog)
}

// LoadCatalogFile parses and validates a catalogue from disk, replacing
// the built-in one.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bias catalog %q: %w", path, err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse: %v", err)}
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

func (c *Catalog) validate() error {
	if len(c.Categories) == 0 {
		return &ConfigError{Reason: "no categories defined"}
	}

	seen := make(map[string]bool, len(c.Categories))
	for i := range c.Categories {
		cat := &c.Categories[i]

		if strings.TrimSpace(cat.ID) == "" {
			return &ConfigError{Reason: fmt.Sprintf("category at index %d has no id", i)}
		}
		if seen[cat.ID] {
			return &ConfigError{Category: cat.ID, Reason: "duplicate id"}
		}
		seen[cat.ID] = true

		if strings.TrimSpace(cat.Label) == "" {
			return &ConfigError{Category: cat.ID, Reason: "missing label"}
		}
		if cat.Severity < SeverityLow || cat.Severity > SeverityHigh {
			return &ConfigError{Category: cat.ID, Reason: "invalid severity"}
		}
		if strings.TrimSpace(cat.Legal) == "" {
			return &ConfigError{Category: cat.ID, Reason: "missing legal citation"}
		}
		if len(cat.Triggers) == 0 {
			return &ConfigError{Category: cat.ID, Reason: "empty trigger set"}
		}
		for _, trigger := range cat.Triggers {
			if strings.TrimSpace(trigger) == "" {
				return &ConfigError{Category: cat.ID, Reason: "blank trigger phrase"}
			}
		}
	}

	for _, required := range requiredCategories {
		if !seen[required] {
			return &ConfigError{Category: required, Reason: "required category is missing"}
		}
	}

	return nil
}

// Find returns the category with the given id, or nil.
func (c *Catalog) Find(id string) *Category {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i]
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.Categories)
}
