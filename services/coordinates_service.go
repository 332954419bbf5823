package services

import (
	"context"
	"fmt"
	"time"

	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/coordinates"
)

type CoordinatesService struct {
	store store.CoordinateRepository
	now   func() time.Time
}

func NewCoordinatesService(s store.CoordinateRepository) *CoordinatesService {
	return &CoordinatesService{store: s, now: time.Now}
}

// Upsert creates or overwrites the record for canvasID, stamped with the current time.
func (s *CoordinatesService) Upsert(ctx context.Context, canvasID string, latitude, longitude float64) (*coordinates.Record, error) {
	rec := &coordinates.Record{
		CanvasID:  canvasID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: s.now().UTC(),
	}

	if err := s.store.UpsertCoordinates(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save coordinates for canvas %s: %w", canvasID, err)
	}
	return rec, nil
}

func (s *CoordinatesService) Get(ctx context.Context, canvasID string) (*coordinates.Record, error) {
	rec, err := s.store.GetCoordinates(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("coordinates for canvas %s: %w", canvasID, err)
	}
	return rec, nil
}

func (s *CoordinatesService) List(ctx context.Context) ([]*coordinates.Record, error) {
	records, err := s.store.ListCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinates: %w", err)
	}
	return records, nil
}
