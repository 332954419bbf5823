// Package memory is an in-process store used by tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/internal/user"
)

var _ store.Store = (*Store)(nil)

// Store keeps deep copies of every document so callers never share memory with it.
type Store struct {
	mu          sync.RWMutex
	sketchbooks map[string]*sketchbook.Sketchbook
	order       []string
	coordinates map[string]coordinates.Record
	users       map[string]user.User
}

func New() *Store {
	return &Store{
		sketchbooks: make(map[string]*sketchbook.Sketchbook),
		coordinates: make(map[string]coordinates.Record),
		users:       make(map[string]user.User),
	}
}

func (s *Store) CreateSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sketchbooks[sb.ID]; ok {
		return store.ErrConflict
	}
	s.sketchbooks[sb.ID] = sb.Clone()
	s.order = append(s.order, sb.ID)
	return nil
}

func (s *Store) GetSketchbook(ctx context.Context, id string) (*sketchbook.Sketchbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sb, ok := s.sketchbooks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sb.Clone(), nil
}

func (s *Store) ListSketchbooks(ctx context.Context) ([]*sketchbook.Sketchbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*sketchbook.Sketchbook, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sketchbooks[id].Clone())
	}
	return out, nil
}

func (s *Store) SaveSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sketchbooks[sb.ID]; !ok {
		return store.ErrNotFound
	}
	s.sketchbooks[sb.ID] = sb.Clone()
	return nil
}

func (s *Store) DeleteSketchbook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sketchbooks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sketchbooks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) FindSketchbookByCanvas(ctx context.Context, canvasID string) (*sketchbook.Sketchbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		sb := s.sketchbooks[id]
		if c, _ := sb.Canvas(canvasID); c != nil {
			return sb.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) RecentCanvases(ctx context.Context, limit int) ([]*sketchbook.CanvasRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []*sketchbook.CanvasRef
	for _, id := range s.order {
		sb := s.sketchbooks[id]
		for _, c := range sb.Canvases {
			refs = append(refs, &sketchbook.CanvasRef{
				Canvas:          *c.Clone(),
				SketchbookID:    sb.ID,
				SketchbookTitle: sb.Title,
			})
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].LastModified.After(refs[j].LastModified)
	})
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	if refs == nil {
		refs = []*sketchbook.CanvasRef{}
	}
	return refs, nil
}

func (s *Store) UpsertCoordinates(ctx context.Context, rec *coordinates.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coordinates[rec.CanvasID] = *rec
	return nil
}

func (s *Store) GetCoordinates(ctx context.Context, canvasID string) (*coordinates.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.coordinates[canvasID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (s *Store) ListCoordinates(ctx context.Context) ([]*coordinates.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*coordinates.Record, 0, len(s.coordinates))
	for _, rec := range s.coordinates {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanvasID < out[j].CanvasID })
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Email]; ok {
		return store.ErrConflict
	}
	s.users[u.Email] = *u
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
