package store

import (
	"context"
	"errors"

	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/internal/user"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// SketchbookRepository persists sketchbooks as whole documents with their
// canvases embedded. Writes replace the stored document, last write wins.
type SketchbookRepository interface {
	CreateSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error
	GetSketchbook(ctx context.Context, id string) (*sketchbook.Sketchbook, error)
	ListSketchbooks(ctx context.Context) ([]*sketchbook.Sketchbook, error)
	SaveSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error
	DeleteSketchbook(ctx context.Context, id string) error

	// FindSketchbookByCanvas returns the sketchbook that owns canvasID.
	FindSketchbookByCanvas(ctx context.Context, canvasID string) (*sketchbook.Sketchbook, error)
	// RecentCanvases returns canvases across all sketchbooks, newest LastModified first.
	RecentCanvases(ctx context.Context, limit int) ([]*sketchbook.CanvasRef, error)
}

type CoordinateRepository interface {
	UpsertCoordinates(ctx context.Context, rec *coordinates.Record) error
	GetCoordinates(ctx context.Context, canvasID string) (*coordinates.Record, error)
	ListCoordinates(ctx context.Context) ([]*coordinates.Record, error)
}

type UserRepository interface {
	// CreateUser returns ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}

// Store is the full persistence contract a driver implements.
type Store interface {
	SketchbookRepository
	CoordinateRepository
	UserRepository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
