// Package feature provides persistence for the canonical feature
// catalog: feature upsert plus get-or-create access to the shared
// vocabulary rows (source types, tags, categories, licenses).
package feature

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahti-platform/ahti/internal/models"
)

// Store wraps a gorm handle. Use WithTx to scope a store to a
// transaction so a record's upsert and reconciliation commit as one
// atomic unit.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// DB exposes the underlying handle for reconciliation queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates the catalog tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate catalog: %w", err)
	}
	return nil
}

// GetOrCreateSourceType returns the source type for (system, type),
// creating it on first use. Safe under concurrent creators: the
// insert ignores a uniqueness conflict and the row is re-read.
func (s *Store) GetOrCreateSourceType(system, typ string) (*models.SourceType, error) {
	st := models.SourceType{System: system, Type: typ}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "system"}, {Name: "type"}},
		DoNothing: true,
	}).Create(&st).Error
	if err != nil {
		return nil, fmt.Errorf("create source type %s:%s: %w", system, typ, err)
	}
	if st.ID == 0 {
		// Conflict path: the row already existed, fetch it.
		if err := s.db.Where("system = ? AND type = ?", system, typ).First(&st).Error; err != nil {
			return nil, fmt.Errorf("get source type %s:%s: %w", system, typ, err)
		}
	}
	return &st, nil
}

// UpsertTag creates the tag or refreshes its display name. The id is
// never changed once created.
func (s *Store) UpsertTag(id, name string) (*models.Tag, error) {
	tag := models.Tag{ID: id, Name: name}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&tag).Error
	if err != nil {
		return nil, fmt.Errorf("upsert tag %q: %w", id, err)
	}
	return &tag, nil
}

// UpsertCategory creates the category or refreshes its display name.
func (s *Store) UpsertCategory(id, name string) (*models.Category, error) {
	category := models.Category{ID: id, Name: name}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&category).Error
	if err != nil {
		return nil, fmt.Errorf("upsert category %q: %w", id, err)
	}
	return &category, nil
}

// GetOrCreateLicense returns the license with the given name,
// creating it on first use.
func (s *Store) GetOrCreateLicense(name string) (*models.License, error) {
	license := models.License{Name: name}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&license).Error
	if err != nil {
		return nil, fmt.Errorf("create license %q: %w", name, err)
	}
	if license.ID == 0 {
		if err := s.db.Where("name = ?", name).First(&license).Error; err != nil {
			return nil, fmt.Errorf("get license %q: %w", name, err)
		}
	}
	return &license, nil
}

// Values carries the scalar feature attributes an import supplies.
type Values struct {
	Language         string
	Name             string
	URL              string
	OneLiner         string
	Description      string
	Geometry         models.Geometry
	SourceModifiedAt time.Time
}

// UpsertFeature resolves (source type, source id) to a feature,
// creating it or updating its scalar attributes. MappedAt is always
// refreshed so downstream consumers can tell "touched by an import"
// from "content changed". The category and visibility of an existing
// feature are left alone.
func (s *Store) UpsertFeature(st *models.SourceType, sourceID string, v Values) (*models.Feature, error) {
	now := time.Now().UTC()

	var f models.Feature
	err := s.db.Where("source_type_id = ? AND source_id = ?", st.ID, sourceID).First(&f).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		f = models.Feature{
			SourceTypeID:     st.ID,
			SourceID:         sourceID,
			Language:         v.Language,
			Name:             v.Name,
			URL:              v.URL,
			OneLiner:         v.OneLiner,
			Description:      v.Description,
			Geometry:         v.Geometry,
			SourceModifiedAt: v.SourceModifiedAt,
			MappedAt:         now,
			Visibility:       models.VisibilityVisible,
		}
		if err := s.db.Create(&f).Error; err != nil {
			return nil, fmt.Errorf("create feature %s/%s: %w", st, sourceID, err)
		}
	case err != nil:
		return nil, fmt.Errorf("get feature %s/%s: %w", st, sourceID, err)
	default:
		updates := map[string]any{
			"language":           v.Language,
			"name":               v.Name,
			"url":                v.URL,
			"one_liner":          v.OneLiner,
			"description":        v.Description,
			"geometry":           v.Geometry,
			"source_modified_at": v.SourceModifiedAt,
			"mapped_at":          now,
		}
		if err := s.db.Model(&f).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update feature %s/%s: %w", st, sourceID, err)
		}
	}

	f.SourceType = *st
	return &f, nil
}

// SetCategoryIfEmpty assigns the category to the feature only when it
// has none. Reports whether the assignment happened.
func (s *Store) SetCategoryIfEmpty(f *models.Feature, categoryID string) (bool, error) {
	res := s.db.Model(&models.Feature{}).
		Where("id = ? AND category_id IS NULL", f.ID).
		Update("category_id", categoryID)
	if res.Error != nil {
		return false, fmt.Errorf("set category on feature %d: %w", f.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		f.CategoryID = &categoryID
		return true, nil
	}
	return false, nil
}
