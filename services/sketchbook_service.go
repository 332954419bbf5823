package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/metrics"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/sketchbook"
)

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 100
)

type SketchbookService struct {
	store       store.SketchbookRepository
	coordinates *CoordinatesService
	now         func() time.Time
	newID       func() string
}

func NewSketchbookService(s store.SketchbookRepository, coordinates *CoordinatesService) *SketchbookService {
	return &SketchbookService{
		store:       s,
		coordinates: coordinates,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (s *SketchbookService) Create(ctx context.Context, title string) (*sketchbook.Sketchbook, error) {
	sb := sketchbook.New(s.newID(), title, s.now())
	if err := s.store.CreateSketchbook(ctx, sb); err != nil {
		return nil, fmt.Errorf("failed to create sketchbook: %w", err)
	}
	return sb, nil
}

func (s *SketchbookService) List(ctx context.Context) ([]*sketchbook.Sketchbook, error) {
	sketchbooks, err := s.store.ListSketchbooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sketchbooks: %w", err)
	}
	return sketchbooks, nil
}

func (s *SketchbookService) Get(ctx context.Context, id string) (*sketchbook.Sketchbook, error) {
	sb, err := s.store.GetSketchbook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sketchbook %s: %w", id, err)
	}
	return sb, nil
}

// Delete removes the sketchbook together with every canvas it owns.
func (s *SketchbookService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSketchbook(ctx, id); err != nil {
		return fmt.Errorf("sketchbook %s: %w", id, err)
	}
	return nil
}

func (s *SketchbookService) AddCanvas(ctx context.Context, sketchbookID, title string) (*canvas.Canvas, error) {
	sb, err := s.store.GetSketchbook(ctx, sketchbookID)
	if err != nil {
		return nil, fmt.Errorf("sketchbook %s: %w", sketchbookID, err)
	}

	now := s.now()
	c := canvas.New(s.newID(), title, now)
	sb.Canvases = append(sb.Canvases, c)
	sb.LastModified = now

	if err := s.store.SaveSketchbook(ctx, sb); err != nil {
		return nil, fmt.Errorf("failed to add canvas to sketchbook %s: %w", sketchbookID, err)
	}
	return c, nil
}

func (s *SketchbookService) GetCanvas(ctx context.Context, canvasID string) (*sketchbook.CanvasRef, error) {
	sb, err := s.store.FindSketchbookByCanvas(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("canvas %s: %w", canvasID, err)
	}

	c, _ := sb.Canvas(canvasID)
	if c == nil {
		return nil, fmt.Errorf("canvas %s: %w", canvasID, store.ErrNotFound)
	}
	return &sketchbook.CanvasRef{Canvas: *c, SketchbookID: sb.ID, SketchbookTitle: sb.Title}, nil
}

// UpdateCanvas replaces the canvas' elements, re-derives its location and
// saves the owning sketchbook. When an image supplied the location the
// coordinate store is updated too; a failure there only logs.
func (s *SketchbookService) UpdateCanvas(ctx context.Context, canvasID string, req *sketchbook.UpdateCanvasRequest) (*canvas.Canvas, error) {
	sb, err := s.store.FindSketchbookByCanvas(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("canvas %s: %w", canvasID, err)
	}

	c, _ := sb.Canvas(canvasID)
	if c == nil {
		return nil, fmt.Errorf("canvas %s: %w", canvasID, store.ErrNotFound)
	}

	c.Elements = req.Elements
	if c.Elements == nil {
		c.Elements = []canvas.Element{}
	}
	if req.Title != nil {
		c.Title = *req.Title
	}

	now := s.now()
	derived := c.Touch(now)
	sb.LastModified = now

	if err := s.store.SaveSketchbook(ctx, sb); err != nil {
		return nil, fmt.Errorf("failed to save canvas %s: %w", canvasID, err)
	}

	if derived && s.coordinates != nil {
		if _, err := s.coordinates.Upsert(ctx, c.ID, c.Location.Latitude, c.Location.Longitude); err != nil {
			metrics.CoordinateUpsertFailures.Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("canvas_id", c.ID).Msg("canvas saved but coordinate record not updated")
		}
	}

	return c, nil
}

func (s *SketchbookService) DeleteCanvas(ctx context.Context, sketchbookID, canvasID string) error {
	sb, err := s.store.GetSketchbook(ctx, sketchbookID)
	if err != nil {
		return fmt.Errorf("sketchbook %s: %w", sketchbookID, err)
	}

	_, idx := sb.Canvas(canvasID)
	if idx < 0 {
		return fmt.Errorf("canvas %s: %w", canvasID, store.ErrNotFound)
	}

	sb.Canvases = append(sb.Canvases[:idx], sb.Canvases[idx+1:]...)
	sb.LastModified = s.now()

	if err := s.store.SaveSketchbook(ctx, sb); err != nil {
		return fmt.Errorf("failed to delete canvas %s: %w", canvasID, err)
	}
	return nil
}

// ClampRecentLimit applies the default to non-positive values and caps the rest.
func ClampRecentLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	}
	return limit
}

func (s *SketchbookService) RecentCanvases(ctx context.Context, limit int) ([]*sketchbook.CanvasRef, error) {
	refs, err := s.store.RecentCanvases(ctx, ClampRecentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent canvases: %w", err)
	}
	return refs, nil
}

// ImportLegacy turns standalone canvas documents into a new sketchbook.
// Stored locations are kept as they are; canvases without one get it derived.
func (s *SketchbookService) ImportLegacy(ctx context.Context, req *sketchbook.ImportLegacyRequest) (*sketchbook.Sketchbook, error) {
	now := s.now()
	sb := sketchbook.New(s.newID(), req.Title, now)
	seen := make(map[string]bool, len(req.Canvases))

	for _, legacy := range req.Canvases {
		c := s.fromLegacy(legacy, now)

		if seen[c.ID] {
			return nil, fmt.Errorf("canvas %s appears twice: %w", c.ID, store.ErrConflict)
		}
		seen[c.ID] = true

		_, err := s.store.FindSketchbookByCanvas(ctx, c.ID)
		switch {
		case err == nil:
			return nil, fmt.Errorf("canvas %s: %w", c.ID, store.ErrConflict)
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("failed to check canvas %s: %w", c.ID, err)
		}

		sb.Canvases = append(sb.Canvases, c)
	}

	if err := s.store.CreateSketchbook(ctx, sb); err != nil {
		return nil, fmt.Errorf("failed to import canvases: %w", err)
	}

	if s.coordinates != nil {
		for _, c := range sb.Canvases {
			if c.Location == nil {
				continue
			}
			if _, err := s.coordinates.Upsert(ctx, c.ID, c.Location.Latitude, c.Location.Longitude); err != nil {
				metrics.CoordinateUpsertFailures.Inc()
				logging.Ctx(ctx).Warn().Err(err).Str("canvas_id", c.ID).Msg("imported canvas without coordinate record")
			}
		}
	}

	logging.Ctx(ctx).Info().Str("sketchbook_id", sb.ID).Int("canvases", len(sb.Canvases)).Msg("legacy canvases imported")
	return sb, nil
}

func (s *SketchbookService) fromLegacy(legacy sketchbook.LegacyCanvas, now time.Time) *canvas.Canvas {
	id := legacy.ID
	if id == "" {
		id = legacy.LegacyID
	}
	if id == "" {
		id = s.newID()
	}

	created := now
	if legacy.CreatedAt != nil {
		created = legacy.CreatedAt.UTC()
	}

	c := canvas.New(id, legacy.Title, created)
	if legacy.Elements != nil {
		c.Elements = legacy.Elements
	}
	if legacy.UpdatedAt != nil {
		c.LastModified = legacy.UpdatedAt.UTC()
	}

	if legacy.Location != nil {
		loc := *legacy.Location
		c.Location = &loc
	} else {
		c.DeriveLocation()
	}
	return c
}
