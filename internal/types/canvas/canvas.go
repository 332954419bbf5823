package canvas

import (
	"time"

	"github.com/goccy/go-json"

	"tripRecapAPI/internal/types/geo"
)

const DefaultTitle = "Untitled Canvas"

type ElementType string

const (
	ElementTypeText  ElementType = "text"
	ElementTypeImage ElementType = "image"
)

type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// ElementMetadata is produced by the upload pipeline and attached to image elements by the client.
type ElementMetadata struct {
	Width             int              `json:"width,omitempty" bson:"width,omitempty"`
	Height            int              `json:"height,omitempty" bson:"height,omitempty"`
	Format            string           `json:"format,omitempty" bson:"format,omitempty"`
	Coordinates       *geo.Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	Timestamp         *time.Time       `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	OriginalTimestamp *time.Time       `json:"originalTimestamp,omitempty" bson:"originalTimestamp,omitempty"`
}

// UnmarshalJSON drops coordinates that are missing an axis, a half location is no location.
func (m *ElementMetadata) UnmarshalJSON(data []byte) error {
	type plain ElementMetadata
	aux := struct {
		*plain
		Coordinates *geo.PartialCoordinates `json:"coordinates"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m.Coordinates = nil
	if c, ok := aux.Coordinates.Complete(); ok {
		m.Coordinates = c
	}
	return nil
}

type Element struct {
	ID       string           `json:"id" bson:"id"`
	Type     ElementType      `json:"type" bson:"type" validate:"required,oneof=text image"`
	Content  string           `json:"content" bson:"content"`
	Position Position         `json:"position" bson:"position"`
	Style    map[string]any   `json:"style,omitempty" bson:"style,omitempty"`
	Metadata *ElementMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Coordinates returns the element's location if it is an image carrying a complete pair.
func (e *Element) Coordinates() (*geo.Coordinates, bool) {
	if e.Type != ElementTypeImage || e.Metadata == nil || e.Metadata.Coordinates == nil {
		return nil, false
	}
	c := *e.Metadata.Coordinates
	return &c, true
}

type Canvas struct {
	ID           string           `json:"id" bson:"_id"`
	Title        string           `json:"title" bson:"title"`
	Elements     []Element        `json:"elements" bson:"elements"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	LastModified time.Time        `json:"lastModified" bson:"lastModified"`
	Location     *geo.Coordinates `json:"location,omitempty" bson:"location,omitempty"`
}

func New(id, title string, now time.Time) *Canvas {
	if title == "" {
		title = DefaultTitle
	}
	return &Canvas{
		ID:           id,
		Title:        title,
		Elements:     []Element{},
		CreatedAt:    now,
		LastModified: now,
	}
}

// FirstLocation scans elements in order and returns the coordinates of the first geotagged image.
func (c *Canvas) FirstLocation() (*geo.Coordinates, bool) {
	for i := range c.Elements {
		if loc, ok := c.Elements[i].Coordinates(); ok {
			return loc, true
		}
	}
	return nil, false
}

// DeriveLocation sets Location from the first geotagged image. When no element
// qualifies, a previously derived Location is kept, not cleared.
func (c *Canvas) DeriveLocation() bool {
	loc, ok := c.FirstLocation()
	if ok {
		c.Location = loc
	}
	return ok
}

// Touch runs location derivation and stamps LastModified; called on every save.
// It reports whether an image element supplied the location on this save.
func (c *Canvas) Touch(now time.Time) bool {
	derived := c.DeriveLocation()
	c.LastModified = now
	return derived
}

// Clone returns a deep copy so stored documents never share memory with callers.
func (c *Canvas) Clone() *Canvas {
	if c == nil {
		return nil
	}
	out := *c
	if c.Location != nil {
		loc := *c.Location
		out.Location = &loc
	}
	out.Elements = make([]Element, len(c.Elements))
	for i, e := range c.Elements {
		out.Elements[i] = e.clone()
	}
	return &out
}

func (e Element) clone() Element {
	if e.Style != nil {
		style := make(map[string]any, len(e.Style))
		for k, v := range e.Style {
			style[k] = v
		}
		e.Style = style
	}
	if e.Metadata != nil {
		md := *e.Metadata
		if md.Coordinates != nil {
			c := *md.Coordinates
			md.Coordinates = &c
		}
		e.Metadata = &md
	}
	return e
}
