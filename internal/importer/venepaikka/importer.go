package venepaikka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/feature"
	"github.com/ahti-platform/ahti/internal/importer"
	"github.com/ahti-platform/ahti/internal/models"
)

const (
	// Identifier is the name this importer registers under.
	Identifier = "venepaikka_harbors"

	sourceSystem   = "venepaikka"
	sourceTypeName = "harbor"

	imageCopyrightOwner = "venepaikat.hel.fi"
	servicemapLinkType  = "servicemap"
	servicemapUnitURL   = "https://palvelukartta.hel.fi/fi/unit/"
)

// harborDetails is the per-harbor berth summary persisted as the
// feature's HARBOR details payload.
type harborDetails struct {
	BerthMoorings []models.HarborMooringType `json:"berth_moorings"`
	BerthMinDepth *float64                   `json:"berth_min_depth"`
	BerthMaxDepth *float64                   `json:"berth_max_depth"`
}

// Importer imports harbors from the berth registry. Every harbor gets
// the configured static tag and category plus a servicemap link and a
// berth summary details row.
type Importer struct {
	db     *gorm.DB
	cfg    config.VenepaikkaConfig
	client *Client
	logger *slog.Logger
}

// NewImporter creates the harbors importer. A nil client gets the
// production endpoint.
func NewImporter(db *gorm.DB, cfg config.VenepaikkaConfig, client *Client, logger *slog.Logger) *Importer {
	if client == nil {
		client = NewClient(DefaultURL, 0)
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

// ImportFeatures fetches the harbors listing and reconciles the
// extracted records into features. Each record commits in its own
// transaction, so a mid-run failure leaves earlier records intact and
// the next run converges the rest.
func (i *Importer) ImportFeatures(ctx context.Context) (*importer.Result, error) {
	store := feature.NewStore(i.db)
	st, err := store.GetOrCreateSourceType(sourceSystem, sourceTypeName)
	if err != nil {
		return nil, err
	}

	doc, err := i.client.FetchHarbors(ctx)
	if err != nil {
		return nil, err
	}

	records, err := extractHarbors(doc)
	if err != nil {
		return nil, fmt.Errorf("extracting harbors: %w", err)
	}

	imported := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rec.SourceID == "" {
			i.logger.Warn("skipping harbor without id")
			continue
		}
		if err := i.importRecord(st, rec); err != nil {
			return nil, fmt.Errorf("importing harbor %s: %w", rec.SourceID, err)
		}
		imported++
	}

	return &importer.Result{FeaturesImported: imported}, nil
}

// importRecord upserts one harbor and reconciles its children inside
// a single transaction.
func (i *Importer) importRecord(st *models.SourceType, rec harborRecord) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		store := feature.NewStore(tx)

		// The registry reports no modification timestamps; record the
		// import time instead.
		f, err := store.UpsertFeature(st, rec.SourceID, feature.Values{
			Language:         i.cfg.Language,
			Name:             rec.Name,
			Geometry:         rec.Geometry,
			SourceModifiedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		r := importer.NewReconciler(tx)

		var desired []*models.Tag
		if i.cfg.Tag.ID != "" {
			tag, err := store.UpsertTag(i.cfg.Tag.ID, i.cfg.Tag.Name)
			if err != nil {
				return err
			}
			desired = append(desired, tag)
		}
		if err := r.SyncTags(f, desired); err != nil {
			return err
		}

		if i.cfg.Category.ID != "" {
			category, err := store.UpsertCategory(i.cfg.Category.ID, i.cfg.Category.Name)
			if err != nil {
				return err
			}
			if err := r.SetCategory(f, category); err != nil {
				return err
			}
		}

		if err := r.SyncContactInfo(f, rec.ContactInfo); err != nil {
			return err
		}

		if err := r.SyncLinks(f, servicemapLinks(rec.ServicemapID)); err != nil {
			return err
		}

		images := make([]importer.ImageRecord, 0, len(rec.Images))
		for _, img := range rec.Images {
			images = append(images, importer.ImageRecord{
				URL:            img.URL,
				CopyrightOwner: imageCopyrightOwner,
				License:        i.cfg.ImageLicense,
			})
		}
		if err := r.SyncImages(f, images, nil); err != nil {
			return err
		}

		return r.SyncDetails(f, models.DetailsTypeHarbor, i.buildDetails(rec))
	})
}

// servicemapLinks derives the servicemap link set. A harbor with no
// servicemap id yields an empty URL, which removes a stale link.
func servicemapLinks(servicemapID string) []importer.LinkRecord {
	link := importer.LinkRecord{Type: servicemapLinkType}
	if servicemapID != "" {
		link.URL = servicemapUnitURL + servicemapID
	}
	return []importer.LinkRecord{link}
}

// buildDetails summarizes the harbor's berths: the sorted distinct set
// of translated mooring types plus the depth range. Mooring types the
// translation table does not know are dropped. A harbor with neither
// moorings nor depth data has no details payload.
func (i *Importer) buildDetails(rec harborRecord) any {
	mooringSet := make(map[models.HarborMooringType]bool)
	for _, external := range rec.Moorings {
		internal, ok := i.cfg.MooringMapping[external]
		if !ok {
			continue
		}
		mooringSet[models.HarborMooringType(internal)] = true
	}

	moorings := make([]models.HarborMooringType, 0, len(mooringSet))
	for m := range mooringSet {
		moorings = append(moorings, m)
	}
	sort.Slice(moorings, func(a, b int) bool { return moorings[a] < moorings[b] })

	var minDepth, maxDepth *float64
	for _, depth := range rec.Depths {
		d := depth
		if minDepth == nil || d < *minDepth {
			minDepth = &d
		}
		if maxDepth == nil || d > *maxDepth {
			maxDepth = &d
		}
	}

	if len(moorings) == 0 && minDepth == nil {
		return nil
	}

	return harborDetails{
		BerthMoorings: moorings,
		BerthMinDepth: minDepth,
		BerthMaxDepth: maxDepth,
	}
}
