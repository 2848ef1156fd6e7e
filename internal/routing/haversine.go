package routing

import (
	"math"

	"citybites/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance in kilometers between two points
func Haversine(a, b models.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// distanceMatrix precomputes pairwise distances. Only the upper triangle is
// computed so that dist[i][j] and dist[j][i] are bit-identical.
func distanceMatrix(points []models.Point) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Haversine(points[i], points[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// PathDistance returns the open-path length of points visited in order
func PathDistance(points []models.Point, order []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(order); i++ {
		total += Haversine(points[order[i]], points[order[i+1]])
	}
	return total
}

func tourLength(dist [][]float64, tour []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(tour); i++ {
		total += dist[tour[i]][tour[i+1]]
	}
	return total
}
