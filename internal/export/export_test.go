package export

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citybites/internal/models"
	"citybites/internal/routing"
)

func samplePlaces() []models.Place {
	return []models.Place{
		{ID: "A", Name: "Louvre", Lat: 48.8606, Lon: 2.3376, Notes: "Museum"},
		{ID: "B", Name: "Tour Eiffel", Lat: 48.8584, Lon: 2.2945},
		{ID: "C", Name: "Notre-Dame", Lat: 48.8530, Lon: 2.3499},
	}
}

func sampleRoute(places []models.Place, order ...string) *models.RouteResult {
	byID := map[string]models.Place{}
	for _, p := range places {
		byID[p.ID] = p
	}
	points := make([]models.Point, len(order))
	for i, id := range order {
		points[i] = byID[id].ToPoint()
	}
	return &models.RouteResult{
		Order:      order,
		DistanceKm: 5.1,
		Polyline:   routing.EncodePolyline(points),
	}
}

func decodeGeoJSON(t *testing.T, content string) FeatureCollection {
	t.Helper()
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string                 `json:"type"`
			Properties map[string]interface{} `json:"properties"`
			Geometry   struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(content), &fc))

	out := FeatureCollection{Type: fc.Type}
	for _, f := range fc.Features {
		var coords interface{}
		require.NoError(t, json.Unmarshal(f.Geometry.Coordinates, &coords))
		out.Features = append(out.Features, Feature{
			Type:       f.Type,
			Properties: f.Properties,
			Geometry:   Geometry{Type: f.Geometry.Type, Coordinates: coords},
		})
	}
	return out
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("GeoJSON")
	require.NoError(t, err)
	assert.Equal(t, FormatGeoJSON, f)

	f, err = ParseFormat(" kml ")
	require.NoError(t, err)
	assert.Equal(t, FormatKML, f)

	_, err = ParseFormat("pdf")
	var invalid *ErrInvalidExport
	assert.True(t, errors.As(err, &invalid))
}

func TestExport_GeoJSONPlacesOnly(t *testing.T) {
	file, err := Export(samplePlaces(), nil, FormatGeoJSON)
	require.NoError(t, err)

	assert.Equal(t, "map.geojson", file.Filename)
	assert.Equal(t, "application/geo+json", file.MimeType)

	fc := decodeGeoJSON(t, file.Content)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0]
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, []interface{}{2.3376, 48.8606}, first.Geometry.Coordinates)
	assert.Equal(t, "Louvre", first.Properties["name"])
	assert.Equal(t, "Museum", first.Properties["notes"])

	_, hasNotes := fc.Features[1].Properties["notes"]
	assert.False(t, hasNotes)
}

func TestExport_GeoJSONWithRoute(t *testing.T) {
	places := samplePlaces()
	route := sampleRoute(places, "B", "A", "C")

	file, err := Export(places, route, FormatGeoJSON)
	require.NoError(t, err)

	fc := decodeGeoJSON(t, file.Content)
	require.Len(t, fc.Features, 4)

	// Places follow route order
	assert.Equal(t, "B", fc.Features[0].Properties["id"])
	assert.Equal(t, "A", fc.Features[1].Properties["id"])
	assert.Equal(t, "C", fc.Features[2].Properties["id"])

	line := fc.Features[3]
	assert.Equal(t, "LineString", line.Geometry.Type)
	assert.Equal(t, "Route", line.Properties["name"])
	assert.Equal(t, 5.1, line.Properties["distanceKm"])

	coords := line.Geometry.Coordinates.([]interface{})
	require.Len(t, coords, 3)
	start := coords[0].([]interface{})
	assert.InDelta(t, 2.2945, start[0].(float64), 2e-5)
	assert.InDelta(t, 48.8584, start[1].(float64), 2e-5)
}

func TestExport_RouteWithoutPolyline(t *testing.T) {
	places := samplePlaces()
	route := &models.RouteResult{Order: []string{"C", "B", "A"}}

	file, err := Export(places, route, FormatGeoJSON)
	require.NoError(t, err)

	fc := decodeGeoJSON(t, file.Content)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "C", fc.Features[0].Properties["id"])
}

func TestExport_KML(t *testing.T) {
	places := samplePlaces()
	places[0].Name = `Café <"Le Petit"> & Co`
	route := sampleRoute(places, "A", "C", "B")

	file, err := Export(places, route, FormatKML)
	require.NoError(t, err)

	assert.Equal(t, "map.kml", file.Filename)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", file.MimeType)
	assert.True(t, strings.HasPrefix(file.Content, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, file.Content, `xmlns="http://www.opengis.net/kml/2.2"`)
	assert.Contains(t, file.Content, "&lt;")
	assert.Contains(t, file.Content, "&amp;")
	assert.Contains(t, file.Content, "<coordinates>2.3376,48.8606,0</coordinates>")

	var doc kmlDocument
	require.NoError(t, xml.Unmarshal([]byte(file.Content), &doc))
	require.Len(t, doc.Document.Placemarks, 4)
	assert.Equal(t, `Café <"Le Petit"> & Co`, doc.Document.Placemarks[0].Name)
	assert.Equal(t, "C", doc.Document.Placemarks[1].ID)
	assert.Equal(t, "B", doc.Document.Placemarks[2].ID)

	route4 := doc.Document.Placemarks[3]
	assert.Equal(t, "Route", route4.Name)
	require.NotNil(t, route4.LineString)
	assert.Len(t, strings.Fields(route4.LineString.Coordinates), 3)
}

func TestExport_Errors(t *testing.T) {
	places := samplePlaces()

	tests := []struct {
		name   string
		places []models.Place
		route  *models.RouteResult
		format Format
		reason string
	}{
		{"no places", nil, nil, FormatGeoJSON, "no places"},
		{"duplicate place ids", append(samplePlaces(), places[0]), nil, FormatGeoJSON, "duplicate place id"},
		{"short route", places, &models.RouteResult{Order: []string{"A", "B"}}, FormatKML, "2 stops but 3 places"},
		{"unknown id", places, &models.RouteResult{Order: []string{"A", "B", "Z"}}, FormatKML, "unknown place"},
		{"repeated id", places, &models.RouteResult{Order: []string{"A", "B", "B"}}, FormatKML, "twice"},
		{"bad polyline", places, &models.RouteResult{Order: []string{"A", "B", "C"}, Polyline: "_p~iF~ps|U_"}, FormatGeoJSON, "route polyline"},
		{"bad format", places, nil, Format("pdf"), "unsupported format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Export(tt.places, tt.route, tt.format)
			require.Error(t, err)
			assert.Nil(t, file)

			var invalid *ErrInvalidExport
			require.True(t, errors.As(err, &invalid))
			assert.Contains(t, invalid.Reason, tt.reason)
		})
	}
}

func TestExport_DoesNotReorderInput(t *testing.T) {
	places := samplePlaces()
	route := sampleRoute(places, "C", "B", "A")

	_, err := Export(places, route, FormatKML)
	require.NoError(t, err)
	assert.Equal(t, "A", places[0].ID)
}
