package venepaikka

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/feature"
	"github.com/ahti-platform/ahti/internal/models"
)

const harborsResponse = `{
  "data": {
    "harbors": {
      "edges": [
        {
          "node": {
            "id": "SGFyYm9yTm9kZTox",
            "geometry": {"type": "Point", "coordinates": [24.937, 60.155]},
            "properties": {
              "name": "Merisatama",
              "imageFile": "https://venepaikat.hel.fi/media/merisatama.jpg",
              "imageLink": null,
              "streetAddress": "Merisatamanranta 4",
              "zipCode": "00150",
              "municipality": "Helsinki",
              "phone": "+358501234567",
              "email": "merisatama@example.fi",
              "servicemapId": "41066",
              "piers": {
                "edges": [
                  {"node": {"properties": {"berthType": {"mooringType": "SINGLE_SLIP_PLACE", "depth": 1.5}}}},
                  {"node": {"properties": {"berthType": {"mooringType": "STERN_BUOY_PLACE", "depth": 3.0}}}},
                  {"node": {"properties": {"berthType": {"mooringType": "SIDE_SLIP_PLACE", "depth": 2.0}}}},
                  {"node": {"properties": {"berthType": {"mooringType": "NEW_FANGLED_PLACE", "depth": 9.0}}}}
                ]
              }
            }
          }
        },
        {
          "node": {
            "id": "SGFyYm9yTm9kZToy",
            "geometry": null,
            "properties": {
              "name": "Tyhjäsatama",
              "imageFile": null,
              "imageLink": null,
              "streetAddress": null,
              "zipCode": null,
              "municipality": null,
              "phone": null,
              "email": null,
              "servicemapId": null,
              "piers": {"edges": []}
            }
          }
        }
      ]
    }
  }
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, feature.NewStore(db).AutoMigrate())
	return db
}

func testConfig() config.VenepaikkaConfig {
	return config.VenepaikkaConfig{
		Language:     "fi",
		Tag:          config.StaticItem{ID: "ahti:tag:harbor", Name: "satama"},
		Category:     config.StaticItem{ID: "ahti:category:harbor", Name: "Satamat"},
		ImageLicense: "All rights reserved.",
		MooringMapping: map[string]string{
			"SINGLE_SLIP_PLACE": "SLIP",
			"SIDE_SLIP_PLACE":   "SLIP",
			"STERN_BUOY_PLACE":  "STERN_BUOY",
		},
	}
}

func newTestImporter(t *testing.T, db *gorm.DB, handler http.HandlerFunc) *Importer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewImporter(db, testConfig(), NewClient(server.URL, 0), nil)
}

func TestImportFeatures(t *testing.T) {
	db := newTestDB(t)
	var gotQuery string
	imp := newTestImporter(t, db, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body["query"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(harborsResponse))
	})

	res, err := imp.ImportFeatures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.FeaturesImported)
	assert.Contains(t, gotQuery, "harbors")
	assert.Contains(t, gotQuery, "berthType")

	var f models.Feature
	require.NoError(t, db.Preload("SourceType").
		Where("source_id = ?", "SGFyYm9yTm9kZTox").First(&f).Error)
	assert.Equal(t, "Merisatama", f.Name)
	assert.Equal(t, "venepaikka:harbor:SGFyYm9yTm9kZTox", f.AhtiID())
	assert.False(t, f.Geometry.IsZero())
	assert.False(t, f.SourceModifiedAt.IsZero(),
		"source_modified_at falls back to the import time")

	// Every harbor gets the static tag and category.
	var tags []models.FeatureTag
	require.NoError(t, db.Where("feature_id = ?", f.ID).Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "ahti:tag:harbor", tags[0].TagID)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, "ahti:category:harbor", *f.CategoryID)

	var ci models.ContactInfo
	require.NoError(t, db.Where("feature_id = ?", f.ID).First(&ci).Error)
	assert.Equal(t, "Merisatamanranta 4", ci.StreetAddress)
	assert.Equal(t, "00150", ci.PostalCode)
	assert.Equal(t, "Helsinki", ci.Municipality)
	assert.Equal(t, "+358501234567", ci.PhoneNumber)
	assert.Equal(t, "merisatama@example.fi", ci.Email)

	var link models.Link
	require.NoError(t, db.Where("feature_id = ? AND type = ?", f.ID, "servicemap").First(&link).Error)
	assert.Equal(t, "https://palvelukartta.hel.fi/fi/unit/41066", link.URL)

	var images []models.Image
	require.NoError(t, db.Where("feature_id = ?", f.ID).Find(&images).Error)
	require.Len(t, images, 1)
	assert.Equal(t, "https://venepaikat.hel.fi/media/merisatama.jpg", images[0].URL)
	assert.Equal(t, "venepaikat.hel.fi", images[0].CopyrightOwner)

	// The berth summary: distinct translated moorings, unmapped types
	// dropped, depth range over all berths.
	var details models.FeatureDetails
	require.NoError(t, db.Where("feature_id = ? AND type = ?", f.ID, models.DetailsTypeHarbor).
		First(&details).Error)
	var payload struct {
		BerthMoorings []string `json:"berth_moorings"`
		BerthMinDepth *float64 `json:"berth_min_depth"`
		BerthMaxDepth *float64 `json:"berth_max_depth"`
	}
	require.NoError(t, json.Unmarshal(details.Data, &payload))
	assert.Equal(t, []string{"SLIP", "STERN_BUOY"}, payload.BerthMoorings)
	require.NotNil(t, payload.BerthMinDepth)
	assert.Equal(t, 1.5, *payload.BerthMinDepth)
	require.NotNil(t, payload.BerthMaxDepth)
	assert.Equal(t, 9.0, *payload.BerthMaxDepth)

	// The harbor with no data gets neither contact info, nor link, nor
	// details.
	var empty models.Feature
	require.NoError(t, db.Where("source_id = ?", "SGFyYm9yTm9kZToy").First(&empty).Error)
	var count int64
	require.NoError(t, db.Model(&models.ContactInfo{}).Where("feature_id = ?", empty.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Link{}).Where("feature_id = ?", empty.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.FeatureDetails{}).Where("feature_id = ?", empty.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportFeaturesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	imp := newTestImporter(t, db, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(harborsResponse))
	})

	for i := 0; i < 2; i++ {
		res, err := imp.ImportFeatures(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.FeaturesImported)
	}

	counts := map[any]int64{
		&models.Feature{}:        2,
		&models.FeatureTag{}:     2,
		&models.ContactInfo{}:    1,
		&models.Link{}:           1,
		&models.Image{}:          1,
		&models.FeatureDetails{}: 1,
		&models.Tag{}:            1,
		&models.Category{}:       1,
	}
	for model, want := range counts {
		var got int64
		require.NoError(t, db.Model(model).Count(&got).Error)
		assert.Equal(t, want, got, "%T", model)
	}
}

func TestImportFeaturesPreservesManualTags(t *testing.T) {
	db := newTestDB(t)
	imp := newTestImporter(t, db, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(harborsResponse))
	})

	_, err := imp.ImportFeatures(context.Background())
	require.NoError(t, err)

	var f models.Feature
	require.NoError(t, db.Where("source_id = ?", "SGFyYm9yTm9kZTox").First(&f).Error)

	store := feature.NewStore(db)
	sauna, err := store.UpsertTag("ahti:tag:sauna", "sauna")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.FeatureTag{
		FeatureID: f.ID, TagID: sauna.ID, Source: models.TagSourceManual,
	}).Error)

	_, err = imp.ImportFeatures(context.Background())
	require.NoError(t, err)

	var tags []models.FeatureTag
	require.NoError(t, db.Where("feature_id = ?", f.ID).Order("tag_id").Find(&tags).Error)
	require.Len(t, tags, 2)
	assert.Equal(t, "ahti:tag:harbor", tags[0].TagID)
	assert.Equal(t, "ahti:tag:sauna", tags[1].TagID)
	assert.Equal(t, models.TagSourceManual, tags[1].Source)
}

func TestImportFeaturesProviderErrorIsFatal(t *testing.T) {
	db := newTestDB(t)
	imp := newTestImporter(t, db, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := imp.ImportFeatures(context.Background())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Feature{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBuildDetailsWithoutBerthData(t *testing.T) {
	imp := NewImporter(nil, testConfig(), NewClient(DefaultURL, 0), nil)

	assert.Nil(t, imp.buildDetails(harborRecord{}))

	// Unmapped mooring types alone do not produce a payload either.
	assert.Nil(t, imp.buildDetails(harborRecord{Moorings: []string{"NEW_FANGLED_PLACE"}}))
}
