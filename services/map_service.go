package services

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/geo"
	"tripRecapAPI/internal/types/sketchbook"
)

// Where a marker's position came from.
const (
	LocationFromCanvas      = "canvas"
	LocationFromCoordinates = "coordinates"
	LocationFromElement     = "element"
)

type MapConfig struct {
	AccessToken string `json:"accessToken"`
	Style       string `json:"style"`
}

type MapService struct {
	sketchbooks store.SketchbookRepository
	coordinates store.CoordinateRepository
	cfg         MapConfig
}

func NewMapService(sketchbooks store.SketchbookRepository, coordinates store.CoordinateRepository, cfg MapConfig) *MapService {
	return &MapService{sketchbooks: sketchbooks, coordinates: coordinates, cfg: cfg}
}

func (s *MapService) Config() MapConfig {
	return s.cfg
}

// Markers returns one point per locatable canvas, limited to one sketchbook when
// sketchbookID is set. Canvases without any location are left out.
func (s *MapService) Markers(ctx context.Context, sketchbookID string) (*geojson.FeatureCollection, error) {
	var sketchbooks []*sketchbook.Sketchbook
	if sketchbookID != "" {
		sb, err := s.sketchbooks.GetSketchbook(ctx, sketchbookID)
		if err != nil {
			return nil, fmt.Errorf("sketchbook %s: %w", sketchbookID, err)
		}
		sketchbooks = append(sketchbooks, sb)
	} else {
		all, err := s.sketchbooks.ListSketchbooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sketchbooks: %w", err)
		}
		sketchbooks = all
	}

	records, err := s.coordinates.ListCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinates: %w", err)
	}
	byCanvas := make(map[string]*geo.Coordinates, len(records))
	for _, rec := range records {
		byCanvas[rec.CanvasID] = &geo.Coordinates{Latitude: rec.Latitude, Longitude: rec.Longitude}
	}

	fc := geojson.NewFeatureCollection()
	for _, sb := range sketchbooks {
		for _, c := range sb.Canvases {
			loc, source := resolveLocation(c, byCanvas)
			if loc == nil {
				continue
			}

			f := geojson.NewFeature(orb.Point{loc.Longitude, loc.Latitude})
			f.ID = c.ID
			f.Properties["canvasId"] = c.ID
			f.Properties["sketchbookId"] = sb.ID
			f.Properties["sketchbookTitle"] = sb.Title
			f.Properties["title"] = c.Title
			f.Properties["source"] = source
			fc.Append(f)
		}
	}
	return fc, nil
}

// resolveLocation prefers the canvas' own location, then the coordinate store,
// then the first geotagged image.
func resolveLocation(c *canvas.Canvas, records map[string]*geo.Coordinates) (*geo.Coordinates, string) {
	if c.Location != nil {
		return c.Location, LocationFromCanvas
	}
	if loc, ok := records[c.ID]; ok {
		return loc, LocationFromCoordinates
	}
	if loc, ok := c.FirstLocation(); ok {
		return loc, LocationFromElement
	}
	return nil, ""
}
