package models

// Visibility controls whether a feature is exposed by the read API.
// Importers never change it.
type Visibility int

const (
	VisibilityHidden  Visibility = 0
	VisibilityVisible Visibility = 1
	VisibilityDraft   Visibility = 2
)

// FeatureTagSource records how a tag ended up on a feature.
type FeatureTagSource string

const (
	// TagSourceMapping marks tags set by an importer run. These are
	// fully owned by reconciliation and replaced on every import.
	TagSourceMapping FeatureTagSource = "MAPPING"
	// TagSourceManual marks tags set by an operator. Reconciliation
	// must never remove or reclassify them.
	TagSourceManual FeatureTagSource = "MANUAL"
)

// FeatureDetailsType discriminates the polymorphic FeatureDetails payload.
type FeatureDetailsType string

const (
	DetailsTypeHarbor FeatureDetailsType = "HARBOR"
)

// HarborMooringType enumerates the mooring types a harbor can offer.
type HarborMooringType string

const (
	MooringSlip      HarborMooringType = "SLIP"
	MooringSternBuoy HarborMooringType = "STERN_BUOY"
	MooringSternPole HarborMooringType = "STERN_POLE"
	MooringQuayside  HarborMooringType = "QUAYSIDE"
	MooringSeaBuoy   HarborMooringType = "SEA_BUOY"
)

// KnownMooringTypes lists every valid HarborMooringType value.
func KnownMooringTypes() []HarborMooringType {
	return []HarborMooringType{
		MooringSlip,
		MooringSternBuoy,
		MooringSternPole,
		MooringQuayside,
		MooringSeaBuoy,
	}
}

// IsValid reports whether m is a known mooring type.
func (m HarborMooringType) IsValid() bool {
	for _, known := range KnownMooringTypes() {
		if m == known {
			return true
		}
	}
	return false
}

// OverrideFieldType enumerates feature fields an operator can override.
type OverrideFieldType string

const (
	OverrideFieldName OverrideFieldType = "NAME"
)

// Weekday follows ISO 8601: Monday is 1, Sunday is 7.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// IsValid reports whether d is within the ISO weekday range.
func (d Weekday) IsValid() bool {
	return d >= Monday && d <= Sunday
}
