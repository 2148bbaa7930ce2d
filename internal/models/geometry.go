package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GeometryType is the GeoJSON geometry type of a feature.
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
)

// Geometry is a GeoJSON point or line stored as a JSON-encoded text
// column. Coordinates are (lon, lat) pairs in WGS 84.
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint returns a point geometry at the given coordinates.
func NewPoint(lon, lat float64) Geometry {
	coords, _ := json.Marshal([2]float64{lon, lat})
	return Geometry{Type: GeometryPoint, Coordinates: coords}
}

// NewLineString returns a line geometry through the given coordinates.
func NewLineString(coords [][2]float64) Geometry {
	raw, _ := json.Marshal(coords)
	return Geometry{Type: GeometryLineString, Coordinates: raw}
}

// Point returns the coordinates of a point geometry.
func (g Geometry) Point() (lon, lat float64, ok bool) {
	if g.Type != GeometryPoint {
		return 0, 0, false
	}
	var coords [2]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// IsZero reports whether the geometry is unset.
func (g Geometry) IsZero() bool {
	return g.Type == "" && len(g.Coordinates) == 0
}

// Value implements driver.Valuer.
func (g Geometry) Value() (driver.Value, error) {
	if g.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal geometry: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (g *Geometry) Scan(value any) error {
	if value == nil {
		*g = Geometry{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported geometry column type %T", value)
	}

	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("unmarshal geometry: %w", err)
	}
	return nil
}
