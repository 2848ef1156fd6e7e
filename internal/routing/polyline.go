package routing

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"citybites/internal/models"
)

// EncodePolyline encodes points in the Google encoded polyline format at
// 1e-5 degree precision. The encoding is lossy.
func EncodePolyline(points []models.Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline decodes a Google encoded polyline into coordinates
func DecodePolyline(encoded string) ([]models.Coordinates, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("failed to decode polyline: %d trailing bytes", len(rest))
	}

	result := make([]models.Coordinates, len(coords))
	for i, c := range coords {
		result[i] = models.Coordinates{Lat: c[0], Lon: c[1]}
	}
	return result, nil
}
