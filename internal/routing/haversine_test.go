package routing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"citybites/internal/models"
)

func TestHaversine_KnownDistances(t *testing.T) {
	paris := models.Point{ID: "paris", Lat: 48.8566, Lon: 2.3522}
	london := models.Point{ID: "london", Lat: 51.5074, Lon: -0.1278}
	newYork := models.Point{ID: "nyc", Lat: 40.7128, Lon: -74.0060}

	assert.InDelta(t, 343.5, Haversine(paris, london), 1.5)
	assert.InDelta(t, 5570, Haversine(london, newYork), 15)
}

func TestHaversine_OneDegreeOfLatitude(t *testing.T) {
	a := models.Point{Lat: 0, Lon: 0}
	b := models.Point{Lat: 1, Lon: 0}

	assert.InDelta(t, 111.195, Haversine(a, b), 0.01)
}

func TestHaversine_SamePointIsZero(t *testing.T) {
	p := models.Point{Lat: 35.6762, Lon: 139.6503}

	assert.Equal(t, 0.0, Haversine(p, p))
}

func TestHaversine_Antipodal(t *testing.T) {
	a := models.Point{Lat: 0, Lon: 0}
	b := models.Point{Lat: 0, Lon: 180}

	assert.InDelta(t, 20015.09, Haversine(a, b), 0.1)
}

func TestHaversine_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		a := models.Point{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}
		b := models.Point{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}

		ab := Haversine(a, b)
		assert.InDelta(t, ab, Haversine(b, a), 1e-9)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestDistanceMatrix_Symmetric(t *testing.T) {
	points := parisPoints()

	dist := distanceMatrix(points)

	for i := range points {
		assert.Equal(t, 0.0, dist[i][i])
		for j := range points {
			assert.Equal(t, dist[i][j], dist[j][i])
		}
	}
}

func TestPathDistance_OpenPath(t *testing.T) {
	points := parisPoints()

	total := PathDistance(points, []int{0, 2, 1})

	want := Haversine(points[0], points[2]) + Haversine(points[2], points[1])
	assert.InDelta(t, want, total, 1e-12)
	assert.Equal(t, 0.0, PathDistance(points, []int{1}))
}
