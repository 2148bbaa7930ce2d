package importer

import (
	"time"

	"github.com/ahti-platform/ahti/internal/models"
)

// ExternalItem is a free-form vocabulary item as a provider reports
// it, before mapping into the canonical vocabulary.
type ExternalItem struct {
	ID   string
	Name string
}

// ImageRecord is a desired image extracted from a source payload.
type ImageRecord struct {
	URL            string
	CopyrightOwner string
	License        string
}

// LinkRecord is a desired typed link. An empty URL means the source
// has no target for this link type and any persisted row is removed.
type LinkRecord struct {
	Type string
	URL  string
}

// ContactInfoRecord is the desired contact information. Empty source
// fields stay empty strings so stale values are overwritten.
type ContactInfoRecord struct {
	StreetAddress string
	PostalCode    string
	Municipality  string
	PhoneNumber   string
	Email         string
}

// IsEmpty reports whether the source supplied no contact field at
// all, in which case any persisted row is deleted.
func (c ContactInfoRecord) IsEmpty() bool {
	return c.StreetAddress == "" && c.PostalCode == "" && c.Municipality == "" &&
		c.PhoneNumber == "" && c.Email == ""
}

// OpeningHoursDay is one weekday's hours as reported by the source.
type OpeningHoursDay struct {
	Day    models.Weekday
	Opens  string
	Closes string
	AllDay bool
}

// HasData reports whether the day carries any opening information.
// Days without data are skipped during reconciliation.
func (d OpeningHoursDay) HasData() bool {
	return d.Opens != "" || d.Closes != "" || d.AllDay
}

// OpeningHoursRecord is the single current opening hours period the
// providers here support.
type OpeningHoursRecord struct {
	Comment string
	Days    []OpeningHoursDay
}

// IsEmpty reports whether the record carries neither a comment nor
// any day with data; an empty record deletes the persisted period.
func (r *OpeningHoursRecord) IsEmpty() bool {
	if r == nil {
		return true
	}
	if r.Comment != "" {
		return false
	}
	for _, d := range r.Days {
		if d.HasData() {
			return false
		}
	}
	return true
}

// FeatureRecord is the canonical per-record shape provider payloads
// are normalized into before the upsert and reconcile steps run.
// Extraction is total: missing optional fields stay zero values.
type FeatureRecord struct {
	SourceID         string
	Name             string
	URL              string
	OneLiner         string
	Description      string
	Geometry         models.Geometry
	SourceModifiedAt time.Time

	Tags         []ExternalItem
	Images       []ImageRecord
	Links        []LinkRecord
	ContactInfo  *ContactInfoRecord
	OpeningHours *OpeningHoursRecord
}
