package myhelsinki

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/feature"
	"github.com/ahti-platform/ahti/internal/importer"
	"github.com/ahti-platform/ahti/internal/models"
)

const (
	// Identifier is the name this importer registers under.
	Identifier = "myhelsinki_places"

	sourceSystem   = "myhelsinki"
	sourceTypeName = "place"
)

// Importer imports MyHelsinki places. The working set is the union of
// all configured API calls; overlapping records across calls update
// the same feature.
type Importer struct {
	db     *gorm.DB
	cfg    config.MyHelsinkiConfig
	client *Client
	logger *slog.Logger
}

// NewImporter creates the places importer. A nil client gets the
// production endpoint.
func NewImporter(db *gorm.DB, cfg config.MyHelsinkiConfig, client *Client, logger *slog.Logger) *Importer {
	if client == nil {
		client = NewClient(DefaultBaseURL, cfg.Language, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, cfg: cfg, client: client, logger: logger}
}

// Identifier implements importer.Importer.
func (i *Importer) Identifier() string {
	return Identifier
}

// ImportFeatures fetches every configured API call and reconciles the
// extracted records into features. Each record commits in its own
// transaction, so a mid-run failure leaves earlier records intact and
// the next run converges the rest.
func (i *Importer) ImportFeatures(ctx context.Context) (*importer.Result, error) {
	store := feature.NewStore(i.db)
	st, err := store.GetOrCreateSourceType(sourceSystem, sourceTypeName)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, call := range i.cfg.APICalls {
		doc, err := i.client.FetchPlaces(ctx, call)
		if err != nil {
			return nil, err
		}

		records, err := extractPlaces(doc)
		if err != nil {
			return nil, fmt.Errorf("extracting places: %w", err)
		}

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if rec.SourceID == "" {
				i.logger.Warn("skipping place without id")
				continue
			}
			if err := i.importRecord(st, rec); err != nil {
				return nil, fmt.Errorf("importing place %s: %w", rec.SourceID, err)
			}
			seen[rec.SourceID] = true
		}
	}

	return &importer.Result{FeaturesImported: len(seen)}, nil
}

// importRecord upserts one feature and reconciles its children inside
// a single transaction.
func (i *Importer) importRecord(st *models.SourceType, rec importer.FeatureRecord) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		store := feature.NewStore(tx)

		f, err := store.UpsertFeature(st, rec.SourceID, feature.Values{
			Language:         i.cfg.Language,
			Name:             rec.Name,
			URL:              rec.URL,
			Description:      rec.Description,
			Geometry:         rec.Geometry,
			SourceModifiedAt: rec.SourceModifiedAt,
		})
		if err != nil {
			return err
		}

		rec.Tags = dedupItems(rec.Tags)

		tagMapper := importer.NewTagMapper(i.cfg.TagConfig, store)
		var desired []*models.Tag
		for _, ext := range rec.Tags {
			tag, err := tagMapper.MapTag(ext)
			if err != nil {
				return err
			}
			if tag != nil {
				desired = append(desired, tag)
			}
		}

		r := importer.NewReconciler(tx)
		if err := r.SyncTags(f, desired); err != nil {
			return err
		}

		categoryMapper := importer.NewCategoryMapper(i.cfg.CategoryConfig, store)
		if err := r.SetCategoryFromTags(f, rec.Tags, categoryMapper); err != nil {
			return err
		}

		if err := r.SyncImages(f, rec.Images, i.cfg.AllowedImageLicenses); err != nil {
			return err
		}

		if err := r.SyncContactInfo(f, rec.ContactInfo); err != nil {
			return err
		}

		return r.SyncOpeningHours(f, rec.OpeningHours)
	})
}

// dedupItems drops repeated external items by id, keeping payload order.
func dedupItems(items []importer.ExternalItem) []importer.ExternalItem {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}
