package canvas

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripRecapAPI/internal/types/geo"
)

func imageAt(id string, lat, lon float64) Element {
	return Element{
		ID:       id,
		Type:     ElementTypeImage,
		Metadata: &ElementMetadata{Coordinates: &geo.Coordinates{Latitude: lat, Longitude: lon}},
	}
}

func TestDeriveLocation_FirstQualifyingImageWins(t *testing.T) {
	c := New("c1", "", time.Now())
	c.Elements = []Element{
		{ID: "e1", Type: ElementTypeImage, Metadata: &ElementMetadata{Width: 10}},
		{ID: "e2", Type: ElementTypeText, Content: "hello"},
		imageAt("e3", 1, 2),
		imageAt("e4", 3, 3),
	}

	require.True(t, c.DeriveLocation())
	assert.Equal(t, &geo.Coordinates{Latitude: 1, Longitude: 2}, c.Location)
}

func TestDeriveLocation_TextWithMetadataIgnored(t *testing.T) {
	c := New("c1", "", time.Now())
	c.Elements = []Element{
		{ID: "t", Type: ElementTypeText, Metadata: &ElementMetadata{Coordinates: &geo.Coordinates{Latitude: 9, Longitude: 9}}},
	}

	assert.False(t, c.DeriveLocation())
	assert.Nil(t, c.Location)
}

func TestDeriveLocation_Idempotent(t *testing.T) {
	c := New("c1", "", time.Now())
	c.Elements = []Element{imageAt("e1", 48.85, 2.35)}

	c.DeriveLocation()
	first := *c.Location
	c.DeriveLocation()
	assert.Equal(t, first, *c.Location)
}

// Removing the geotagged image keeps the last derived location. Pinned until
// product decides whether a canvas should forget its place.
func TestDeriveLocation_RetainsStaleLocation(t *testing.T) {
	c := New("c1", "", time.Now())
	c.Elements = []Element{imageAt("e1", 48.85, 2.35)}
	c.DeriveLocation()

	c.Elements = []Element{{ID: "t", Type: ElementTypeText}}
	assert.False(t, c.DeriveLocation())
	require.NotNil(t, c.Location)
	assert.Equal(t, 48.85, c.Location.Latitude)
}

func TestTouch_StampsLastModified(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := New("c1", "Nice", created)
	c.Elements = []Element{imageAt("e1", 43.7, 7.26)}

	later := created.Add(time.Hour)
	assert.True(t, c.Touch(later))

	assert.Equal(t, created, c.CreatedAt)
	assert.Equal(t, later, c.LastModified)
	assert.NotNil(t, c.Location)
}

func TestNew_DefaultTitle(t *testing.T) {
	c := New("c1", "", time.Now())
	assert.Equal(t, DefaultTitle, c.Title)
	assert.NotNil(t, c.Elements)
}

func TestElementMetadata_UnmarshalDropsPartialCoordinates(t *testing.T) {
	body := `[
		{"id":"a","type":"image","metadata":{"width":800,"coordinates":{"latitude":43.68}}},
		{"id":"b","type":"image","metadata":{"format":"jpeg","coordinates":{"latitude":43.68,"longitude":7.23},"originalTimestamp":"2023-07-14T10:30:00Z"}}
	]`

	var elements []Element
	require.NoError(t, json.Unmarshal([]byte(body), &elements))
	require.Len(t, elements, 2)

	assert.Equal(t, 800, elements[0].Metadata.Width)
	assert.Nil(t, elements[0].Metadata.Coordinates)

	assert.Equal(t, "jpeg", elements[1].Metadata.Format)
	assert.Equal(t, &geo.Coordinates{Latitude: 43.68, Longitude: 7.23}, elements[1].Metadata.Coordinates)
	require.NotNil(t, elements[1].Metadata.OriginalTimestamp)
	assert.Equal(t, 2023, elements[1].Metadata.OriginalTimestamp.Year())
}

func TestClone_IsDeep(t *testing.T) {
	c := New("c1", "", time.Now())
	c.Elements = []Element{imageAt("e1", 1, 2)}
	c.Elements[0].Style = map[string]any{"width": "200px"}
	c.DeriveLocation()

	cp := c.Clone()
	cp.Elements[0].Metadata.Coordinates.Latitude = 50
	cp.Elements[0].Style["width"] = "10px"
	cp.Location.Longitude = 99

	assert.Equal(t, 1.0, c.Elements[0].Metadata.Coordinates.Latitude)
	assert.Equal(t, "200px", c.Elements[0].Style["width"])
	assert.Equal(t, 2.0, c.Location.Longitude)
}
