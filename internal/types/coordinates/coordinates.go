package coordinates

import "time"

// Record is the side index of a canvas' last known location, keyed by canvas id.
type Record struct {
	CanvasID  string    `json:"canvasId" bson:"canvasId"`
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type UpsertRequest struct {
	CanvasID  string   `json:"canvasId" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}
