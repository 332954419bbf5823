package geo

import "fmt"

type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// PartialCoordinates is the wire form of a coordinate pair where either axis
// may be missing. Use Complete to get a usable location.
type PartialCoordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// Complete returns the coordinates only when both axes are present and in range.
func (p *PartialCoordinates) Complete() (*Coordinates, bool) {
	if p == nil || p.Latitude == nil || p.Longitude == nil {
		return nil, false
	}
	lat, lon := *p.Latitude, *p.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	return &Coordinates{Latitude: lat, Longitude: lon}, true
}
