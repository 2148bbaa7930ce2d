package myhelsinki

import (
	"time"

	"github.com/jmespath/go-jmespath"

	"github.com/ahti-platform/ahti/internal/importer"
	"github.com/ahti-platform/ahti/internal/models"
)

// placeExpr normalizes the places listing into the per-record shape.
// Compiled once; the search itself never fails on missing fields.
var placeExpr = jmespath.MustCompile(`
data[*].{
    id: id,
    name: name.fi,
    url: info_url,
    description: description.body,
    modified_at: modified_at,
    lon: location.lon,
    lat: location.lat,
    street_address: location.address.street_address,
    postal_code: location.address.postal_code,
    municipality: location.address.locality,
    images: description.images[*].{
        url: url,
        copyright_owner: copyright_holder,
        license: license_type.name
    },
    tags: tags[*].{id: id, name: name},
    hours: opening_hours.hours[*].{
        day: weekday_id,
        opens: opens,
        closes: closes,
        all_day: open24h
    },
    hours_exception: opening_hours.openinghours_exception
}`)

// extractPlaces turns a decoded places document into feature records.
// Extraction is total: optional fields default to empty values and a
// malformed optional node never drops the record.
func extractPlaces(doc any) ([]importer.FeatureRecord, error) {
	result, err := placeExpr.Search(doc)
	if err != nil {
		return nil, err
	}

	items := importer.AsSlice(result)
	records := make([]importer.FeatureRecord, 0, len(items))
	for _, item := range items {
		place := importer.AsMap(item)
		if place == nil {
			continue
		}
		records = append(records, extractPlace(place))
	}
	return records, nil
}

func extractPlace(place map[string]any) importer.FeatureRecord {
	rec := importer.FeatureRecord{
		SourceID:         importer.AsString(place["id"]),
		Name:             importer.AsString(place["name"]),
		URL:              importer.AsString(place["url"]),
		Description:      importer.AsString(place["description"]),
		SourceModifiedAt: parseModifiedAt(importer.AsString(place["modified_at"])),
	}

	if lon, ok := importer.AsFloat(place["lon"]); ok {
		if lat, ok := importer.AsFloat(place["lat"]); ok {
			rec.Geometry = models.NewPoint(lon, lat)
		}
	}

	rec.ContactInfo = extractContactInfo(place)

	for _, item := range importer.AsSlice(place["images"]) {
		img := importer.AsMap(item)
		url := importer.AsString(img["url"])
		if url == "" {
			continue
		}
		rec.Images = append(rec.Images, importer.ImageRecord{
			URL:            url,
			CopyrightOwner: importer.AsString(img["copyright_owner"]),
			License:        importer.AsString(img["license"]),
		})
	}

	for _, item := range importer.AsSlice(place["tags"]) {
		tag := importer.AsMap(item)
		rec.Tags = append(rec.Tags, importer.ExternalItem{
			ID:   importer.AsString(tag["id"]),
			Name: importer.AsString(tag["name"]),
		})
	}

	rec.OpeningHours = extractOpeningHours(place)

	return rec
}

// extractContactInfo reads the address block. A place without any
// address field gets nil, which deletes any persisted contact info.
func extractContactInfo(place map[string]any) *importer.ContactInfoRecord {
	info := importer.ContactInfoRecord{
		StreetAddress: importer.AsString(place["street_address"]),
		PostalCode:    importer.AsString(place["postal_code"]),
		Municipality:  importer.AsString(place["municipality"]),
	}
	if info.IsEmpty() {
		return nil
	}
	return &info
}

func extractOpeningHours(place map[string]any) *importer.OpeningHoursRecord {
	hours := importer.OpeningHoursRecord{
		Comment: importer.AsString(place["hours_exception"]),
	}

	for _, item := range importer.AsSlice(place["hours"]) {
		h := importer.AsMap(item)
		day, ok := importer.AsFloat(h["day"])
		if !ok {
			continue
		}
		hours.Days = append(hours.Days, importer.OpeningHoursDay{
			Day:    models.Weekday(int(day)),
			Opens:  normalizeTime(importer.AsString(h["opens"])),
			Closes: normalizeTime(importer.AsString(h["closes"])),
			AllDay: importer.AsBool(h["all_day"]),
		})
	}

	return &hours
}

// normalizeTime trims "HH:MM:SS" time strings to "HH:MM".
func normalizeTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// parseModifiedAt reads the provider's timestamp, falling back to the
// import time when it is absent or malformed.
func parseModifiedAt(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
