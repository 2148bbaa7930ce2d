package importer

import (
	"strings"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/feature"
	"github.com/ahti-platform/ahti/internal/models"
)

// TagMapper converts an external tag into a canonical Tag, or
// declines. Matching is case-insensitive on the external name.
// Precedence: whitelist first, then the rules in configuration
// order; the first matching rule wins.
type TagMapper struct {
	cfg   config.TagMappingConfig
	store *feature.Store
}

// NewTagMapper creates a tag mapper writing canonical rows through
// the given store. Bind the store to the record's transaction.
func NewTagMapper(cfg config.TagMappingConfig, store *feature.Store) *TagMapper {
	return &TagMapper{cfg: cfg, store: store}
}

// MapTag resolves an external tag. A whitelisted name is imported
// verbatim under its external id and name; a rule match is imported
// under the rule's internal id and name. Returns nil, nil when no
// mapping applies: the caller must ignore the item.
func (m *TagMapper) MapTag(ext ExternalItem) (*models.Tag, error) {
	for _, name := range m.cfg.Whitelist {
		if strings.EqualFold(name, ext.Name) {
			return m.store.UpsertTag(ext.ID, ext.Name)
		}
	}

	if rule, ok := matchRule(m.cfg.Rules, ext.Name); ok {
		return m.store.UpsertTag(rule.ID, rule.Name)
	}

	return nil, nil
}

// CategoryMapper converts an external vocabulary item into a
// canonical Category. Categories have no whitelist tier.
type CategoryMapper struct {
	cfg   config.CategoryMappingConfig
	store *feature.Store
}

// NewCategoryMapper creates a category mapper writing canonical rows
// through the given store.
func NewCategoryMapper(cfg config.CategoryMappingConfig, store *feature.Store) *CategoryMapper {
	return &CategoryMapper{cfg: cfg, store: store}
}

// MapCategory resolves an external item against the mapping rules.
// Returns nil, nil when no rule matches.
func (m *CategoryMapper) MapCategory(ext ExternalItem) (*models.Category, error) {
	if rule, ok := matchRule(m.cfg.Rules, ext.Name); ok {
		return m.store.UpsertCategory(rule.ID, rule.Name)
	}
	return nil, nil
}

// matchRule scans the rules in order and returns the first whose
// mapped names contain the external name, comparing case-insensitively.
func matchRule(rules []config.MappingRule, externalName string) (config.MappingRule, bool) {
	for _, rule := range rules {
		for _, name := range rule.MappedNames {
			if strings.EqualFold(name, externalName) {
				return rule, true
			}
		}
	}
	return config.MappingRule{}, false
}
