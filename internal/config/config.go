// Package config holds the operator-supplied importer configuration
// and process settings. The importer document ships with an embedded
// baseline which a deployment may override with its own YAML file;
// it is parsed into typed structs and validated once at load time.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahti-platform/ahti/internal/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MappingRule translates a set of external names into one internal
// canonical vocabulary item. Rule order is significant: the first
// matching rule wins.
type MappingRule struct {
	MappedNames []string `yaml:"mapped_names"`
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
}

// TagMappingConfig configures tag mapping: whitelisted external
// names are imported verbatim, everything else goes through rules.
type TagMappingConfig struct {
	Rules     []MappingRule `yaml:"rules"`
	Whitelist []string      `yaml:"whitelist"`
}

// CategoryMappingConfig configures category mapping. Categories have
// no whitelist tier.
type CategoryMappingConfig struct {
	Rules []MappingRule `yaml:"rules"`
}

// StaticItem is a fixed canonical vocabulary entry a provider assigns
// to every record it imports.
type StaticItem struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// APICall is one set of query parameters sent to a provider. A value
// may be a scalar or a list; lists become repeated query parameters.
type APICall map[string]any

// MyHelsinkiConfig configures the MyHelsinki places importer.
type MyHelsinkiConfig struct {
	Language             string                `yaml:"language"`
	APICalls             []APICall             `yaml:"api_calls"`
	TagConfig            TagMappingConfig      `yaml:"tag_config"`
	CategoryConfig       CategoryMappingConfig `yaml:"category_config"`
	AllowedImageLicenses []string              `yaml:"allowed_image_licenses"`
}

// VenepaikkaConfig configures the Venepaikka harbors importer.
type VenepaikkaConfig struct {
	Language       string            `yaml:"language"`
	Tag            StaticItem        `yaml:"tag"`
	Category       StaticItem        `yaml:"category"`
	ImageLicense   string            `yaml:"image_license"`
	MooringMapping map[string]string `yaml:"mooring_mapping"`
}

// Importers groups the per-provider configuration sections.
type Importers struct {
	MyHelsinkiPlaces  MyHelsinkiConfig `yaml:"myhelsinki_places"`
	VenepaikkaHarbors VenepaikkaConfig `yaml:"venepaikka_harbors"`
}

// Config is the full importer configuration document.
type Config struct {
	Importers Importers `yaml:"importers"`
}

// Default returns the embedded baseline configuration.
func Default() (*Config, error) {
	return parse(defaultsYAML)
}

// Load returns the baseline configuration with the optional override
// file applied on top. Pass an empty path to use the baseline alone.
func Load(path string) (*Config, error) {
	cfg, err := parse(defaultsYAML)
	if err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config override %s: %w", path, err)
		}
		// Unmarshal over the defaults: present keys replace, absent
		// keys keep their baseline values.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config override %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural shape of the document. It does not
// second-guess operator intent beyond that.
func (c *Config) Validate() error {
	var errs []error

	if err := validateRules("importers.myhelsinki_places.tag_config", c.Importers.MyHelsinkiPlaces.TagConfig.Rules); err != nil {
		errs = append(errs, err)
	}
	if err := validateRules("importers.myhelsinki_places.category_config", c.Importers.MyHelsinkiPlaces.CategoryConfig.Rules); err != nil {
		errs = append(errs, err)
	}

	vp := c.Importers.VenepaikkaHarbors
	if (vp.Tag.ID == "") != (vp.Tag.Name == "") {
		errs = append(errs, errors.New("importers.venepaikka_harbors.tag: id and name must be set together"))
	}
	if (vp.Category.ID == "") != (vp.Category.Name == "") {
		errs = append(errs, errors.New("importers.venepaikka_harbors.category: id and name must be set together"))
	}
	for external, internal := range vp.MooringMapping {
		if !models.HarborMooringType(internal).IsValid() {
			errs = append(errs, fmt.Errorf(
				"importers.venepaikka_harbors.mooring_mapping: %q maps to unknown mooring type %q",
				external, internal))
		}
	}

	return errors.Join(errs...)
}

func validateRules(section string, rules []MappingRule) error {
	var errs []error
	seen := make(map[string]bool, len(rules))

	for i, rule := range rules {
		if rule.ID == "" {
			errs = append(errs, fmt.Errorf("%s.rules[%d]: id is required", section, i))
		}
		if rule.Name == "" {
			errs = append(errs, fmt.Errorf("%s.rules[%d]: name is required", section, i))
		}
		if len(rule.MappedNames) == 0 {
			errs = append(errs, fmt.Errorf("%s.rules[%d]: mapped_names must not be empty", section, i))
		}
		for _, name := range rule.MappedNames {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Errorf("%s.rules[%d]: mapped_names contains an empty name", section, i))
			}
		}
		if rule.ID != "" && seen[rule.ID] {
			errs = append(errs, fmt.Errorf("%s.rules[%d]: duplicate rule id %q", section, i, rule.ID))
		}
		seen[rule.ID] = true
	}

	return errors.Join(errs...)
}
