// Package models defines the canonical feature catalog entities.
// The schema is managed with gorm auto-migration; uniqueness
// constraints double as the natural keys reconciliation diffs on.
package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SourceType identifies a provider and record kind pair, e.g.
// ("myhelsinki", "place"). Created lazily on first import.
type SourceType struct {
	ID     uint   `gorm:"primaryKey"`
	System string `gorm:"size:200;not null;uniqueIndex:uix_source_type,priority:1"`
	Type   string `gorm:"size:200;not null;uniqueIndex:uix_source_type,priority:2"`
}

func (st SourceType) String() string {
	return fmt.Sprintf("%s:%s", st.System, st.Type)
}

// Feature is the canonical catalog entity. Identity is the unique
// (source_type_id, source_id) pair; existence is fully determined by
// replaying imports and deletion is a manual operation only.
type Feature struct {
	ID           uint       `gorm:"primaryKey"`
	SourceTypeID uint       `gorm:"not null;uniqueIndex:uix_feature_source,priority:1"`
	SourceType   SourceType `gorm:"constraint:OnDelete:CASCADE"`
	SourceID     string     `gorm:"size:200;not null;uniqueIndex:uix_feature_source,priority:2"`

	// Language is the BCP 47 code the translatable attributes below
	// are stored in. Translation storage for further languages is an
	// external collaborator.
	Language    string `gorm:"size:8;not null;default:fi"`
	Name        string `gorm:"size:200;not null"`
	URL         string `gorm:"size:2000"`
	OneLiner    string `gorm:"size:64"`
	Description string `gorm:"type:text"`

	Geometry         Geometry `gorm:"type:text"`
	SourceModifiedAt time.Time
	// MappedAt is refreshed on every successful import touching this
	// feature, even when nothing else changed.
	MappedAt time.Time

	// CategoryID is set-once: an importer may populate it when empty
	// but must never overwrite an existing value.
	CategoryID *string   `gorm:"size:200"`
	Category   *Category `gorm:"constraint:OnDelete:SET NULL"`

	Visibility Visibility `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time

	FeatureTags []FeatureTag `gorm:"constraint:OnDelete:CASCADE"`
	Images      []Image      `gorm:"constraint:OnDelete:CASCADE"`
	Links       []Link       `gorm:"constraint:OnDelete:CASCADE"`
	Details     []FeatureDetails `gorm:"constraint:OnDelete:CASCADE"`
}

// AhtiID returns the human-readable composite identifier
// system:type:source_id. SourceType must be populated.
func (f Feature) AhtiID() string {
	return fmt.Sprintf("%s:%s:%s", f.SourceType.System, f.SourceType.Type, f.SourceID)
}

// FeatureParent links a feature to its parents (e.g. stops along a
// route). Curated manually; importers do not manage it.
type FeatureParent struct {
	FeatureID uint `gorm:"primaryKey"`
	ParentID  uint `gorm:"primaryKey"`
}

// Tag is a canonical vocabulary entry. The id is the stable
// external-facing key; the display name may be refreshed by imports.
type Tag struct {
	ID   string `gorm:"size:200;primaryKey"`
	Name string `gorm:"size:200;not null"`
}

// Category is a canonical vocabulary entry features can belong to.
type Category struct {
	ID          string `gorm:"size:200;primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
}

// FeatureTag joins features and tags. The source discriminator
// decides whether reconciliation owns the row.
type FeatureTag struct {
	ID        uint             `gorm:"primaryKey"`
	FeatureID uint             `gorm:"not null;uniqueIndex:uix_feature_tag,priority:1"`
	TagID     string           `gorm:"size:200;not null;uniqueIndex:uix_feature_tag,priority:2"`
	Tag       Tag              `gorm:"constraint:OnDelete:CASCADE"`
	Source    FeatureTagSource `gorm:"size:7;not null;default:MAPPING"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// License is deduplicated by name and created on demand when an
// accepted image references it.
type License struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:200;not null;uniqueIndex"`
}

// Image is a feature child keyed by (feature, url).
type Image struct {
	ID             uint   `gorm:"primaryKey"`
	FeatureID      uint   `gorm:"not null;uniqueIndex:uix_image_feature_url,priority:1"`
	URL            string `gorm:"size:2000;not null;uniqueIndex:uix_image_feature_url,priority:2"`
	CopyrightOwner string `gorm:"size:200"`
	LicenseID      uint
	License        License `gorm:"constraint:OnDelete:CASCADE"`
}

// ContactInfo holds at most one row per feature. Empty source fields
// are stored as empty strings so stale values do not linger.
type ContactInfo struct {
	ID            uint   `gorm:"primaryKey"`
	FeatureID     uint   `gorm:"not null;uniqueIndex"`
	StreetAddress string `gorm:"size:200"`
	PostalCode    string `gorm:"size:10"`
	Municipality  string `gorm:"size:64"`
	PhoneNumber   string `gorm:"size:32"`
	Email         string `gorm:"size:254"`
}

// Link is a typed external URL, one row per (feature, type).
type Link struct {
	ID        uint   `gorm:"primaryKey"`
	FeatureID uint   `gorm:"not null;uniqueIndex:uix_link_feature_type,priority:1"`
	Type      string `gorm:"size:200;not null;uniqueIndex:uix_link_feature_type,priority:2"`
	URL       string `gorm:"size:2000;not null"`
}

// OpeningHoursPeriod is a validity window with a free-text comment,
// owning one OpeningHours row per weekday with data.
type OpeningHoursPeriod struct {
	ID        uint `gorm:"primaryKey"`
	FeatureID uint `gorm:"not null;index"`
	ValidFrom *time.Time
	ValidTo   *time.Time
	Comment   string `gorm:"type:text"`

	OpeningHours []OpeningHours `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE"`
}

// OpeningHours is one weekday's hours within a period. Opens and
// Closes are "HH:MM" strings; AllDay overrides both.
type OpeningHours struct {
	ID       uint    `gorm:"primaryKey"`
	PeriodID uint    `gorm:"not null;index"`
	Day      Weekday `gorm:"not null"`
	Opens    string  `gorm:"size:5"`
	Closes   string  `gorm:"size:5"`
	AllDay   bool    `gorm:"not null;default:false"`
}

// FeatureDetails is a polymorphic extension record keyed by
// (feature, type) with a typed JSON payload.
type FeatureDetails struct {
	ID        uint               `gorm:"primaryKey"`
	FeatureID uint               `gorm:"not null;uniqueIndex:uix_details_feature_type,priority:1"`
	Type      FeatureDetailsType `gorm:"size:6;not null;uniqueIndex:uix_details_feature_type,priority:2"`
	Data      datatypes.JSON
}

// Override is an operator-supplied value that takes precedence over
// imported data in the read API. Not importer-managed; it exists so
// curation survives reimports.
type Override struct {
	ID          uint              `gorm:"primaryKey"`
	FeatureID   uint              `gorm:"not null;uniqueIndex:uix_override_feature_field,priority:1"`
	Field       OverrideFieldType `gorm:"size:4;not null;uniqueIndex:uix_override_feature_field,priority:2"`
	StringValue string            `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// All returns every model for auto-migration, parents before children.
func All() []any {
	return []any{
		&SourceType{},
		&Category{},
		&Tag{},
		&License{},
		&Feature{},
		&FeatureParent{},
		&FeatureTag{},
		&Image{},
		&ContactInfo{},
		&Link{},
		&OpeningHoursPeriod{},
		&OpeningHours{},
		&FeatureDetails{},
		&Override{},
	}
}
