package importer

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahti-platform/ahti/internal/feature"
	"github.com/ahti-platform/ahti/internal/models"
)

// Reconciler synchronizes a feature's child entities against the
// desired set extracted from the current source payload. Desired
// children are created or updated, stale managed children are
// deleted, and protected children (e.g. manually set tags) are left
// alone. Bind it to the record's transaction so the whole record
// commits atomically.
type Reconciler struct {
	db    *gorm.DB
	store *feature.Store
}

// NewReconciler creates a reconciler on the given handle.
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, store: feature.NewStore(db)}
}

// keyMatch pairs a desired item with the persisted row it matched.
type keyMatch[D, P any] struct {
	desired   D
	persisted P
}

// keyDiff partitions a desired set against a persisted set by
// natural key.
type keyDiff[D, P any] struct {
	creates []D
	updates []keyMatch[D, P]
	deletes []P
}

// diffByKey computes the create/update/delete partitions for a
// desired and a persisted set sharing a natural key. Desired items
// are deduplicated on the key, first occurrence wins, so repeated
// payload entries cannot produce duplicate rows.
func diffByKey[D, P any](desired []D, persisted []P, keyD func(D) string, keyP func(P) string) keyDiff[D, P] {
	var diff keyDiff[D, P]

	byKey := make(map[string]P, len(persisted))
	for _, p := range persisted {
		byKey[keyP(p)] = p
	}

	seen := make(map[string]bool, len(desired))
	for _, d := range desired {
		k := keyD(d)
		if seen[k] {
			continue
		}
		seen[k] = true

		if p, ok := byKey[k]; ok {
			diff.updates = append(diff.updates, keyMatch[D, P]{desired: d, persisted: p})
		} else {
			diff.creates = append(diff.creates, d)
		}
	}

	for _, p := range persisted {
		if !seen[keyP(p)] {
			diff.deletes = append(diff.deletes, p)
		}
	}

	return diff
}

// SyncImages reconciles the feature's images, keyed by URL. When an
// allow-list of license names is configured, images with other
// licenses are treated as absent from the source and removed if
// previously imported. An empty or nil allow-list disables the filter
// entirely; it never means "allow nothing". License rows are created
// on first use.
func (r *Reconciler) SyncImages(f *models.Feature, desired []ImageRecord, allowedLicenses []string) error {
	if len(allowedLicenses) > 0 {
		allowed := make(map[string]bool, len(allowedLicenses))
		for _, name := range allowedLicenses {
			allowed[name] = true
		}
		filtered := desired[:0:0]
		for _, img := range desired {
			if allowed[img.License] {
				filtered = append(filtered, img)
			}
		}
		desired = filtered
	}

	var persisted []models.Image
	if err := r.db.Where("feature_id = ?", f.ID).Find(&persisted).Error; err != nil {
		return fmt.Errorf("load images for feature %d: %w", f.ID, err)
	}

	diff := diffByKey(desired, persisted,
		func(d ImageRecord) string { return d.URL },
		func(p models.Image) string { return p.URL },
	)

	for _, d := range diff.creates {
		license, err := r.store.GetOrCreateLicense(d.License)
		if err != nil {
			return err
		}
		img := models.Image{
			FeatureID:      f.ID,
			URL:            d.URL,
			CopyrightOwner: d.CopyrightOwner,
			LicenseID:      license.ID,
		}
		if err := r.db.Create(&img).Error; err != nil {
			return fmt.Errorf("create image %q: %w", d.URL, err)
		}
	}

	for _, m := range diff.updates {
		license, err := r.store.GetOrCreateLicense(m.desired.License)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"copyright_owner": m.desired.CopyrightOwner,
			"license_id":      license.ID,
		}
		if err := r.db.Model(&m.persisted).Updates(updates).Error; err != nil {
			return fmt.Errorf("update image %q: %w", m.desired.URL, err)
		}
	}

	if err := deleteByID(r.db, diff.deletes, &models.Image{}, func(p models.Image) uint { return p.ID }); err != nil {
		return fmt.Errorf("delete stale images for feature %d: %w", f.ID, err)
	}

	return nil
}

// SyncTags reconciles the feature's tag links against the desired
// canonical tags. Rows with source MANUAL are protected: they are
// never removed or reclassified, even when the same tag is also
// produced by mapping. Only the MAPPING subset is replaced.
func (r *Reconciler) SyncTags(f *models.Feature, desired []*models.Tag) error {
	var persisted []models.FeatureTag
	if err := r.db.Where("feature_id = ?", f.ID).Find(&persisted).Error; err != nil {
		return fmt.Errorf("load tags for feature %d: %w", f.ID, err)
	}

	protected := make(map[string]bool)
	var managed []models.FeatureTag
	for _, ft := range persisted {
		if ft.Source == models.TagSourceManual {
			protected[ft.TagID] = true
		} else {
			managed = append(managed, ft)
		}
	}

	// A desired tag that already exists as a MANUAL link is dropped
	// from the managed set rather than reclassified.
	wanted := desired[:0:0]
	for _, tag := range desired {
		if tag != nil && !protected[tag.ID] {
			wanted = append(wanted, tag)
		}
	}

	diff := diffByKey(wanted, managed,
		func(d *models.Tag) string { return d.ID },
		func(p models.FeatureTag) string { return p.TagID },
	)

	for _, d := range diff.creates {
		ft := models.FeatureTag{
			FeatureID: f.ID,
			TagID:     d.ID,
			Source:    models.TagSourceMapping,
		}
		if err := r.db.Create(&ft).Error; err != nil {
			return fmt.Errorf("link tag %q to feature %d: %w", d.ID, f.ID, err)
		}
	}

	// Matched MAPPING rows carry no mutable fields beyond the key.

	if err := deleteByID(r.db, diff.deletes, &models.FeatureTag{}, func(p models.FeatureTag) uint { return p.ID }); err != nil {
		return fmt.Errorf("delete stale tags for feature %d: %w", f.ID, err)
	}

	return nil
}

// SetCategoryFromTags applies set-once category semantics: the
// feature's candidate external tags are tried in payload order and
// the first one the mapper resolves is written, but only when the
// feature has no category yet.
func (r *Reconciler) SetCategoryFromTags(f *models.Feature, candidates []ExternalItem, mapper *CategoryMapper) error {
	if f.CategoryID != nil {
		return nil
	}
	for _, ext := range candidates {
		category, err := mapper.MapCategory(ext)
		if err != nil {
			return err
		}
		if category == nil {
			continue
		}
		_, err = r.store.SetCategoryIfEmpty(f, category.ID)
		return err
	}
	return nil
}

// SetCategory applies set-once semantics for a pre-resolved category.
func (r *Reconciler) SetCategory(f *models.Feature, category *models.Category) error {
	if category == nil || f.CategoryID != nil {
		return nil
	}
	_, err := r.store.SetCategoryIfEmpty(f, category.ID)
	return err
}

// SyncOpeningHours reconciles the feature's single current opening
// hours period. Extra pre-existing periods are purged, weekday rows
// are diffed on the day, days without data are skipped, and an empty
// record deletes the period entirely.
func (r *Reconciler) SyncOpeningHours(f *models.Feature, rec *OpeningHoursRecord) error {
	var periods []models.OpeningHoursPeriod
	if err := r.db.Where("feature_id = ?", f.ID).Order("id").Find(&periods).Error; err != nil {
		return fmt.Errorf("load opening hours periods for feature %d: %w", f.ID, err)
	}

	if rec.IsEmpty() {
		return r.deletePeriods(periods)
	}

	// The providers here expose a single period; collapse to one.
	var period models.OpeningHoursPeriod
	if len(periods) > 0 {
		period = periods[0]
		if err := r.deletePeriods(periods[1:]); err != nil {
			return err
		}
		if err := r.db.Model(&period).Update("comment", rec.Comment).Error; err != nil {
			return fmt.Errorf("update opening hours period %d: %w", period.ID, err)
		}
	} else {
		period = models.OpeningHoursPeriod{FeatureID: f.ID, Comment: rec.Comment}
		if err := r.db.Create(&period).Error; err != nil {
			return fmt.Errorf("create opening hours period for feature %d: %w", f.ID, err)
		}
	}

	desired := rec.Days[:0:0]
	for _, d := range rec.Days {
		if d.HasData() && d.Day.IsValid() {
			desired = append(desired, d)
		}
	}

	var persisted []models.OpeningHours
	if err := r.db.Where("period_id = ?", period.ID).Find(&persisted).Error; err != nil {
		return fmt.Errorf("load opening hours for period %d: %w", period.ID, err)
	}

	diff := diffByKey(desired, persisted,
		func(d OpeningHoursDay) string { return fmt.Sprintf("%d", d.Day) },
		func(p models.OpeningHours) string { return fmt.Sprintf("%d", p.Day) },
	)

	for _, d := range diff.creates {
		oh := models.OpeningHours{
			PeriodID: period.ID,
			Day:      d.Day,
			Opens:    d.Opens,
			Closes:   d.Closes,
			AllDay:   d.AllDay,
		}
		if err := r.db.Create(&oh).Error; err != nil {
			return fmt.Errorf("create opening hours for day %d: %w", d.Day, err)
		}
	}

	for _, m := range diff.updates {
		updates := map[string]any{
			"opens":   m.desired.Opens,
			"closes":  m.desired.Closes,
			"all_day": m.desired.AllDay,
		}
		if err := r.db.Model(&m.persisted).Updates(updates).Error; err != nil {
			return fmt.Errorf("update opening hours for day %d: %w", m.desired.Day, err)
		}
	}

	if err := deleteByID(r.db, diff.deletes, &models.OpeningHours{}, func(p models.OpeningHours) uint { return p.ID }); err != nil {
		return fmt.Errorf("delete stale opening hours for period %d: %w", period.ID, err)
	}

	return nil
}

func (r *Reconciler) deletePeriods(periods []models.OpeningHoursPeriod) error {
	if len(periods) == 0 {
		return nil
	}
	ids := make([]uint, len(periods))
	for i, p := range periods {
		ids[i] = p.ID
	}
	if err := r.db.Where("period_id IN ?", ids).Delete(&models.OpeningHours{}).Error; err != nil {
		return fmt.Errorf("delete opening hours of periods %v: %w", ids, err)
	}
	if err := r.db.Where("id IN ?", ids).Delete(&models.OpeningHoursPeriod{}).Error; err != nil {
		return fmt.Errorf("delete opening hours periods %v: %w", ids, err)
	}
	return nil
}

// SyncContactInfo replaces the feature's contact info as a unit: when
// the source supplies no contact field at all the row is deleted,
// otherwise every field is upserted, empty strings included.
func (r *Reconciler) SyncContactInfo(f *models.Feature, rec *ContactInfoRecord) error {
	if rec == nil || rec.IsEmpty() {
		if err := r.db.Where("feature_id = ?", f.ID).Delete(&models.ContactInfo{}).Error; err != nil {
			return fmt.Errorf("delete contact info for feature %d: %w", f.ID, err)
		}
		return nil
	}

	ci := models.ContactInfo{
		FeatureID:     f.ID,
		StreetAddress: rec.StreetAddress,
		PostalCode:    rec.PostalCode,
		Municipality:  rec.Municipality,
		PhoneNumber:   rec.PhoneNumber,
		Email:         rec.Email,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "feature_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"street_address", "postal_code", "municipality", "phone_number", "email",
		}),
	}).Create(&ci).Error
	if err != nil {
		return fmt.Errorf("upsert contact info for feature %d: %w", f.ID, err)
	}
	return nil
}

// SyncLinks reconciles the feature's typed links. A desired link with
// an empty URL means the source has no target for that type; the
// persisted row, if any, is removed.
func (r *Reconciler) SyncLinks(f *models.Feature, desired []LinkRecord) error {
	wanted := desired[:0:0]
	for _, l := range desired {
		if l.URL != "" {
			wanted = append(wanted, l)
		}
	}

	var persisted []models.Link
	if err := r.db.Where("feature_id = ?", f.ID).Find(&persisted).Error; err != nil {
		return fmt.Errorf("load links for feature %d: %w", f.ID, err)
	}

	diff := diffByKey(wanted, persisted,
		func(d LinkRecord) string { return d.Type },
		func(p models.Link) string { return p.Type },
	)

	for _, d := range diff.creates {
		link := models.Link{FeatureID: f.ID, Type: d.Type, URL: d.URL}
		if err := r.db.Create(&link).Error; err != nil {
			return fmt.Errorf("create %s link for feature %d: %w", d.Type, f.ID, err)
		}
	}

	for _, m := range diff.updates {
		if err := r.db.Model(&m.persisted).Update("url", m.desired.URL).Error; err != nil {
			return fmt.Errorf("update %s link for feature %d: %w", m.desired.Type, f.ID, err)
		}
	}

	if err := deleteByID(r.db, diff.deletes, &models.Link{}, func(p models.Link) uint { return p.ID }); err != nil {
		return fmt.Errorf("delete stale links for feature %d: %w", f.ID, err)
	}

	return nil
}

// SyncDetails replaces the feature's details row of the given type
// wholesale, or deletes it when the derived payload is nil.
func (r *Reconciler) SyncDetails(f *models.Feature, typ models.FeatureDetailsType, data any) error {
	if data == nil {
		if err := r.db.Where("feature_id = ? AND type = ?", f.ID, typ).Delete(&models.FeatureDetails{}).Error; err != nil {
			return fmt.Errorf("delete %s details for feature %d: %w", typ, f.ID, err)
		}
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s details for feature %d: %w", typ, f.ID, err)
	}

	details := models.FeatureDetails{
		FeatureID: f.ID,
		Type:      typ,
		Data:      datatypes.JSON(payload),
	}
	err = r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feature_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&details).Error
	if err != nil {
		return fmt.Errorf("upsert %s details for feature %d: %w", typ, f.ID, err)
	}
	return nil
}

// deleteByID removes the given rows by primary key.
func deleteByID[P any](db *gorm.DB, rows []P, model any, id func(P) uint) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = id(row)
	}
	return db.Where("id IN ?", ids).Delete(model).Error
}
