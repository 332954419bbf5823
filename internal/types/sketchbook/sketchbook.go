package sketchbook

import (
	"time"

	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/geo"
)

const DefaultTitle = "Untitled Sketchbook"

type Sketchbook struct {
	ID           string           `json:"id" bson:"_id"`
	Title        string           `json:"title" bson:"title"`
	Canvases     []*canvas.Canvas `json:"canvases" bson:"canvases"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	LastModified time.Time        `json:"lastModified" bson:"lastModified"`
}

func New(id, title string, now time.Time) *Sketchbook {
	if title == "" {
		title = DefaultTitle
	}
	return &Sketchbook{
		ID:           id,
		Title:        title,
		Canvases:     []*canvas.Canvas{},
		CreatedAt:    now,
		LastModified: now,
	}
}

// Canvas returns the embedded canvas with the given id and its index, or -1.
func (s *Sketchbook) Canvas(id string) (*canvas.Canvas, int) {
	for i, c := range s.Canvases {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

func (s *Sketchbook) Clone() *Sketchbook {
	if s == nil {
		return nil
	}
	out := *s
	out.Canvases = make([]*canvas.Canvas, len(s.Canvases))
	for i, c := range s.Canvases {
		out.Canvases[i] = c.Clone()
	}
	return &out
}

type CreateSketchbookRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type CreateCanvasRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// UpdateCanvasRequest replaces the element list wholesale; Title is optional.
type UpdateCanvasRequest struct {
	Elements []canvas.Element `json:"elements" validate:"required,dive"`
	Title    *string          `json:"title,omitempty" validate:"omitempty,max=200"`
}

// CanvasRef is a canvas together with the sketchbook that owns it.
type CanvasRef struct {
	canvas.Canvas   `bson:",inline"`
	SketchbookID    string `json:"sketchbookId" bson:"sketchbookId"`
	SketchbookTitle string `json:"sketchbookTitle" bson:"sketchbookTitle"`
}

// LegacyCanvas is the standalone canvas document of the first schema, before
// canvases moved inside sketchbooks.
type LegacyCanvas struct {
	LegacyID  string           `json:"_id"`
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Elements  []canvas.Element `json:"elements" validate:"dive"`
	CreatedAt *time.Time       `json:"createdAt"`
	UpdatedAt *time.Time       `json:"updatedAt"`
	Location  *geo.Coordinates `json:"location"`
}

type ImportLegacyRequest struct {
	Title    string         `json:"title" validate:"max=200"`
	Canvases []LegacyCanvas `json:"canvases" validate:"required,dive"`
}
