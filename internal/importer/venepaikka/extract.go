package venepaikka

import (
	"github.com/jmespath/go-jmespath"

	"github.com/ahti-platform/ahti/internal/importer"
	"github.com/ahti-platform/ahti/internal/models"
)

// harborExpr normalizes the harbors connection into the per-record
// shape. Compiled once; the search itself never fails on missing
// fields.
var harborExpr = jmespath.MustCompile(`
data.harbors.edges[*].node.{
    id: id,
    name: properties.name,
    lon: geometry.coordinates[0],
    lat: geometry.coordinates[1],
    street_address: properties.streetAddress,
    postal_code: properties.zipCode,
    municipality: properties.municipality,
    phone: properties.phone,
    email: properties.email,
    servicemap_id: properties.servicemapId,
    images: [properties.imageFile, properties.imageLink],
    moorings: properties.piers.edges[*].node.properties.berthType.mooringType,
    depths: properties.piers.edges[*].node.properties.berthType.depth
}`)

// harborRecord carries the berth-specific payload alongside the common
// feature fields.
type harborRecord struct {
	importer.FeatureRecord

	ServicemapID string
	Moorings     []string
	Depths       []float64
}

// extractHarbors turns a decoded harbors document into harbor records.
// Extraction is total: optional fields default to empty values and a
// malformed optional node never drops the record.
func extractHarbors(doc any) ([]harborRecord, error) {
	result, err := harborExpr.Search(doc)
	if err != nil {
		return nil, err
	}

	items := importer.AsSlice(result)
	records := make([]harborRecord, 0, len(items))
	for _, item := range items {
		harbor := importer.AsMap(item)
		if harbor == nil {
			continue
		}
		records = append(records, extractHarbor(harbor))
	}
	return records, nil
}

func extractHarbor(harbor map[string]any) harborRecord {
	rec := harborRecord{
		FeatureRecord: importer.FeatureRecord{
			SourceID: importer.AsString(harbor["id"]),
			Name:     importer.AsString(harbor["name"]),
		},
		ServicemapID: importer.AsString(harbor["servicemap_id"]),
	}

	if lon, ok := importer.AsFloat(harbor["lon"]); ok {
		if lat, ok := importer.AsFloat(harbor["lat"]); ok {
			rec.Geometry = models.NewPoint(lon, lat)
		}
	}

	rec.ContactInfo = extractContactInfo(harbor)

	for _, item := range importer.AsSlice(harbor["images"]) {
		url := importer.AsString(item)
		if url == "" {
			continue
		}
		rec.Images = append(rec.Images, importer.ImageRecord{URL: url})
	}

	for _, item := range importer.AsSlice(harbor["moorings"]) {
		if mooring := importer.AsString(item); mooring != "" {
			rec.Moorings = append(rec.Moorings, mooring)
		}
	}

	for _, item := range importer.AsSlice(harbor["depths"]) {
		if depth, ok := importer.AsFloat(item); ok {
			rec.Depths = append(rec.Depths, depth)
		}
	}

	return rec
}

// extractContactInfo reads the address block. A harbor with no contact
// fields at all gets nil, which deletes any persisted contact info.
func extractContactInfo(harbor map[string]any) *importer.ContactInfoRecord {
	info := importer.ContactInfoRecord{
		StreetAddress: importer.AsString(harbor["street_address"]),
		PostalCode:    importer.AsString(harbor["postal_code"]),
		Municipality:  importer.AsString(harbor["municipality"]),
		PhoneNumber:   importer.AsString(harbor["phone"]),
		Email:         importer.AsString(harbor["email"]),
	}
	if info.IsEmpty() {
		return nil
	}
	return &info
}
