package export

import (
	"encoding/json"

	"citybites/internal/models"
)

// FeatureCollection is a GeoJSON feature collection
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry holds a Point ([lon, lat]) or LineString ([][lon, lat])
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// GeoJSON renders places as Point features followed by an optional route
// LineString feature
func GeoJSON(places []models.Place, route *models.RouteResult, line []models.Coordinates) (*models.ExportFile, error) {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(places)+1),
	}

	for _, p := range places {
		c := p.GetCoords()
		props := map[string]interface{}{
			"id":   p.ID,
			"name": p.Name,
		}
		if p.Notes != "" {
			props["notes"] = p.Notes
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Properties: props,
			Geometry:   Geometry{Type: "Point", Coordinates: []float64{c.Lon, c.Lat}},
		})
	}

	if len(line) > 0 {
		coords := make([][]float64, len(line))
		for i, c := range line {
			coords[i] = []float64{c.Lon, c.Lat}
		}
		props := map[string]interface{}{"name": "Route"}
		if route != nil {
			props["distanceKm"] = route.DistanceKm
			props["order"] = route.Order
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Properties: props,
			Geometry:   Geometry{Type: "LineString", Coordinates: coords},
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, err
	}

	return &models.ExportFile{
		Filename: "map.geojson",
		Content:  string(data),
		MimeType: "application/geo+json",
	}, nil
}
