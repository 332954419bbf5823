// Package storetest holds the behaviour every store driver must share.
// Driver packages run it against their own backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/internal/types/geo"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/internal/user"
)

// Run exercises s. Ids are random so a shared database can back every subtest.
func Run(t *testing.T, s store.Store) {
	t.Run("sketchbook round trip", func(t *testing.T) { testRoundTrip(t, s) })
	t.Run("save and delete", func(t *testing.T) { testSaveDelete(t, s) })
	t.Run("find by canvas", func(t *testing.T) { testFindByCanvas(t, s) })
	t.Run("recent canvases", func(t *testing.T) { testRecent(t, s) })
	t.Run("coordinates upsert", func(t *testing.T) { testCoordinates(t, s) })
	t.Run("users", func(t *testing.T) { testUsers(t, s) })
}

func newID() string { return uuid.NewString() }

var base = time.Date(2024, 7, 14, 10, 30, 0, 0, time.UTC)

func sampleCanvas(id string, modified time.Time) *canvas.Canvas {
	c := canvas.New(id, "Nice", base)
	c.Elements = []canvas.Element{
		{ID: "t1", Type: canvas.ElementTypeText, Content: "Promenade", Position: canvas.Position{X: 10, Y: 20}, Style: map[string]any{"color": "red"}},
		{ID: "i1", Type: canvas.ElementTypeImage, Content: "data:image/jpeg;base64,AAAA", Metadata: &canvas.ElementMetadata{
			Width: 800, Height: 600, Format: "jpeg",
			Coordinates: &geo.Coordinates{Latitude: 43.6959, Longitude: 7.2715},
		}},
	}
	c.Touch(modified)
	return c
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	sb := sketchbook.New(newID(), "Riviera", base)
	sb.Canvases = append(sb.Canvases, sampleCanvas(newID(), base.Add(time.Minute)))
	require.NoError(t, s.CreateSketchbook(ctx, sb))
	assert.ErrorIs(t, s.CreateSketchbook(ctx, sb), store.ErrConflict)

	got, err := s.GetSketchbook(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riviera", got.Title)
	assert.True(t, base.Equal(got.CreatedAt))
	require.Len(t, got.Canvases, 1)

	c := got.Canvases[0]
	assert.Equal(t, sb.Canvases[0].ID, c.ID)
	require.Len(t, c.Elements, 2)
	assert.Equal(t, "Promenade", c.Elements[0].Content)
	assert.Equal(t, "red", c.Elements[0].Style["color"])
	require.NotNil(t, c.Elements[1].Metadata)
	assert.Equal(t, 800, c.Elements[1].Metadata.Width)
	require.NotNil(t, c.Location)
	assert.InDelta(t, 43.6959, c.Location.Latitude, 1e-9)

	list, err := s.ListSketchbooks(ctx)
	require.NoError(t, err)
	found := false
	for _, item := range list {
		found = found || item.ID == sb.ID
	}
	assert.True(t, found)

	_, err = s.GetSketchbook(ctx, newID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSaveDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	sb := sketchbook.New(newID(), "", base)
	require.NoError(t, s.CreateSketchbook(ctx, sb))

	sb.Title = "Renamed"
	sb.Canvases = append(sb.Canvases, sampleCanvas(newID(), base))
	sb.LastModified = base.Add(time.Hour)
	require.NoError(t, s.SaveSketchbook(ctx, sb))

	got, err := s.GetSketchbook(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Len(t, got.Canvases, 1)
	assert.True(t, base.Add(time.Hour).Equal(got.LastModified))

	require.NoError(t, s.DeleteSketchbook(ctx, sb.ID))
	assert.ErrorIs(t, s.DeleteSketchbook(ctx, sb.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.SaveSketchbook(ctx, sb), store.ErrNotFound)
}

func testFindByCanvas(t *testing.T, s store.Store) {
	ctx := context.Background()
	canvasID := newID()
	sb := sketchbook.New(newID(), "Owner", base)
	sb.Canvases = append(sb.Canvases, sampleCanvas(newID(), base), sampleCanvas(canvasID, base))
	require.NoError(t, s.CreateSketchbook(ctx, sb))

	owner, err := s.FindSketchbookByCanvas(ctx, canvasID)
	require.NoError(t, err)
	assert.Equal(t, sb.ID, owner.ID)

	_, err = s.FindSketchbookByCanvas(ctx, newID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRecent(t *testing.T, s store.Store) {
	ctx := context.Background()
	// far future so rows from other subtests sort after these
	future := time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC)

	first := sketchbook.New(newID(), "First", base)
	older, newest := sampleCanvas(newID(), future), sampleCanvas(newID(), future.Add(2*time.Hour))
	first.Canvases = append(first.Canvases, older, newest)
	second := sketchbook.New(newID(), "Second", base)
	middle := sampleCanvas(newID(), future.Add(time.Hour))
	second.Canvases = append(second.Canvases, middle)
	require.NoError(t, s.CreateSketchbook(ctx, first))
	require.NoError(t, s.CreateSketchbook(ctx, second))

	refs, err := s.RecentCanvases(ctx, 2)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, newest.ID, refs[0].ID)
	assert.Equal(t, first.ID, refs[0].SketchbookID)
	assert.Equal(t, "First", refs[0].SketchbookTitle)
	assert.Equal(t, middle.ID, refs[1].ID)
	assert.Equal(t, "Second", refs[1].SketchbookTitle)

	require.NoError(t, s.DeleteSketchbook(ctx, first.ID))
	require.NoError(t, s.DeleteSketchbook(ctx, second.ID))
}

func testCoordinates(t *testing.T, s store.Store) {
	ctx := context.Background()
	canvasID := newID()

	require.NoError(t, s.UpsertCoordinates(ctx, &coordinates.Record{CanvasID: canvasID, Latitude: 1, Longitude: 2, Timestamp: base}))
	require.NoError(t, s.UpsertCoordinates(ctx, &coordinates.Record{CanvasID: canvasID, Latitude: 48.85, Longitude: 2.35, Timestamp: base.Add(time.Minute)}))

	rec, err := s.GetCoordinates(ctx, canvasID)
	require.NoError(t, err)
	assert.Equal(t, 48.85, rec.Latitude)
	assert.Equal(t, 2.35, rec.Longitude)
	assert.True(t, base.Add(time.Minute).Equal(rec.Timestamp))

	all, err := s.ListCoordinates(ctx)
	require.NoError(t, err)
	count := 0
	for _, r := range all {
		if r.CanvasID == canvasID {
			count++
		}
	}
	assert.Equal(t, 1, count)

	_, err = s.GetCoordinates(ctx, newID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := newID() + "@example.com"

	u := &user.User{ID: newID(), Username: "margaux", Email: email, PasswordHash: "$2a$10$hash", CreatedAt: base}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &user.User{ID: newID(), Username: "other", Email: email, PasswordHash: "x", CreatedAt: base}), store.ErrConflict)

	got, err := s.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "margaux", got.Username)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	_, err = s.GetUserByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
